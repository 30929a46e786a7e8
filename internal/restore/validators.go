// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
)

// savedValidator is a validator held back during a forced load
type savedValidator struct {
	Name      string
	Validator bson.D
	Action    string
}

// disableValidators makes every existing restore target permissive and returns
// the validators to reapply afterwards. A failure to disable is logged; the
// validator is still reapplied later.
func disableValidators(ctx context.Context, db docdb.Database, existing map[string]docdb.CollectionSpec, targets []string) []savedValidator {
	var saved []savedValidator
	for _, name := range targets {
		spec, ok := existing[name]
		if !ok || spec.Kind == docdb.KindView || len(spec.Validator) == 0 {
			continue
		}

		saved = append(saved, savedValidator{Name: name, Validator: spec.Validator, Action: spec.ValidationAction})
		if err := db.SetValidator(ctx, name, bson.D{}, docdb.ValidationOff, ""); err != nil {
			logging.CtxWarn(ctx).Err(err).Str("collection", name).Msg("Failed to disable validator")
			continue
		}
		logging.CtxInfo(ctx).Str("collection", name).Msg("Validator disabled for restore")
	}
	return saved
}

// reapplyValidators restores saved validators with strict enforcement
func reapplyValidators(ctx context.Context, db docdb.Database, saved []savedValidator) []ValidatorResult {
	results := make([]ValidatorResult, 0, len(saved))
	for _, s := range saved {
		err := db.SetValidator(ctx, s.Name, s.Validator, docdb.ValidationStrict, s.Action)
		if err != nil {
			logging.CtxWarn(ctx).Err(err).Str("collection", s.Name).Msg("Failed to reapply validator")
		}
		results = append(results, ValidatorResult{Name: s.Name, Err: err})
	}
	return results
}

func hasSaved(saved []savedValidator, name string) bool {
	for _, s := range saved {
		if s.Name == name {
			return true
		}
	}
	return false
}
