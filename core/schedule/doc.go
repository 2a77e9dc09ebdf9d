// Package schedule is the mutable scheduling model validated by the rule catalog.
//
// A Schedule owns Blocks, Variants and a MarkerManager. Variants own Allocs. Every
// mutator finishes by notifying the affected Subject synchronously, so subscribed
// rules have recomputed their markers before the mutator returns. The model does no
// locking; callers serialise access.
package schedule
