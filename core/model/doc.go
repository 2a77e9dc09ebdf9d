// Package model holds the read models the validation core consumes but does not own:
// science programs, observations, sites and the classification enums used by the rules.
// Values here are produced by the surrounding planning application.
package model
