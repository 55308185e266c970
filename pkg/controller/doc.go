// Package controller is the entry point of the hazard log. A Controller is
// built from an env-style config file plus optional explicit overrides, and
// validates the resulting identity before any network call is made. It
// then exposes credential checks, repository lifecycle, hazard tracking,
// label policy lookups and working tree sync for one repository.
//
// Basic usage:
//
//	ctrl, err := controller.New(".env")
//	if err != nil {
//		// config.InvalidFields(err) lists every bad field
//	}
//	hazard, err := ctrl.LogHazard(ctx, "Insulin overdose", body, []string{"hazard"})
package controller
