// Command server runs the termstack terminal session service.
//
// Configuration comes from the environment (see internal/config); the
// -port and -host flags override the listen address.
package main
