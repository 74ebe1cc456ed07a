package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/ignoromenot/internal/model"
)

// specValidate is the validator instance for filter specifications.
// Initialized in init() with the existence_level tag.
var specValidate *validator.Validate

// presentLevelsKey carries the existence levels found in the corpus through StructCtx
type presentLevelsKey struct{}

func init() {
	specValidate = validator.New()

	_ = specValidate.RegisterValidationCtx("existence_level", func(ctx context.Context, fl validator.FieldLevel) bool {
		level := model.ExistenceLevel(fl.Field().String())
		if level.IsKnown() {
			return true
		}
		present, _ := ctx.Value(presentLevelsKey{}).(map[model.ExistenceLevel]bool)
		return present[level]
	})
}

// SpecError lists every problem found in a filter specification
type SpecError struct {
	Problems []string
}

func (e *SpecError) Error() string {
	return "invalid filter specification: " + strings.Join(e.Problems, "; ")
}

// Spec checks a filter specification before a pass runs. Existence levels must be
// canonical or one of the present levels, which are the labels found in the corpus.
func Spec(spec model.FilterSpec, present ...model.ExistenceLevel) error {
	levels := make(map[model.ExistenceLevel]bool, len(present))
	for _, level := range present {
		levels[level] = true
	}
	ctx := context.WithValue(context.Background(), presentLevelsKey{}, levels)

	err := specValidate.StructCtx(ctx, spec)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validate spec: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate spec: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &SpecError{Problems: problems}
}

// describe turns a validator field error into an option-level message
func describe(fe validator.FieldError) string {
	option := optionName(fe.Namespace())

	switch fe.Tag() {
	case "existence_level":
		return fmt.Sprintf("%s: unknown existence level %q", option, fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s: max must not be below min", option)
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", option, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", option, fe.Param())
	case "max":
		return fmt.Sprintf("%s: too long (max %s)", option, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", option, fe.Tag())
	}
}

// optionName maps a struct namespace like FilterSpec.Years.Max onto the option's wire name
func optionName(namespace string) string {
	names := map[string]string{
		"ExistenceLevels": "existence_levels",
		"LastReviewed":    "last_reviewed_range",
		"SearchTerms":     "search_terms",
		"MentionFraction": "mention_fraction_range",
		"Years":           "year_range",
	}

	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return namespace
	}

	field := parts[1]
	if idx := strings.Index(field, "["); idx > 0 {
		field = field[:idx]
	}
	name, ok := names[field]
	if !ok {
		name = field
	}
	if len(parts) > 2 {
		name += "." + strings.ToLower(parts[2])
	}
	return name
}
