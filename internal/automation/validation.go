package automation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength     = 100
	maxDescriptionLen = 500
	maxActions        = 100
	maxStepDepth      = 16
	maxFrequency      = 100 // Hz
	namePattern       = `^[A-Za-z_][A-Za-z0-9_-]*$`
)

var nameRegex = regexp.MustCompile(namePattern)

// Validate checks a definition before it is turned into an Automation.
// Returns an error describing the first validation failure found.
func Validate(def Definition) error {
	if err := ValidateName(def.Name); err != nil {
		return err
	}
	if len(def.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: %s: description exceeds %d characters", ErrInvalidAutomation, def.Name, maxDescriptionLen)
	}
	if def.Condition == nil {
		return fmt.Errorf("%w: %s: condition is required", ErrInvalidAutomation, def.Name)
	}
	if def.Frequency < 0 || def.Frequency > maxFrequency {
		return fmt.Errorf("%w: %s: frequency must be 0-%d Hz", ErrInvalidAutomation, def.Name, maxFrequency)
	}
	if def.StartDelay < 0 {
		return fmt.Errorf("%w: %s: start delay must not be negative", ErrInvalidAutomation, def.Name)
	}

	if len(def.Actions) > maxActions {
		return fmt.Errorf("%w: %s: exceeds maximum of %d actions", ErrInvalidAutomation, def.Name, maxActions)
	}
	for i, a := range def.Actions {
		if a.Entity == "" || a.Attribute == "" {
			return fmt.Errorf("%w: %s: action %d: entity and attribute are required", ErrInvalidAutomation, def.Name, i)
		}
	}

	if err := validateSteps(def.Name, def.Steps, 0); err != nil {
		return err
	}

	for _, dep := range def.After {
		if dep == def.Name {
			return fmt.Errorf("%w: %s: cannot run after itself", ErrInvalidAutomation, def.Name)
		}
	}
	return nil
}

// ValidateName checks an automation name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAutomation)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAutomation, maxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: name %q must match %s", ErrInvalidAutomation, name, namePattern)
	}
	return nil
}

func validateSteps(automation string, steps []Step, depth int) error {
	if depth > maxStepDepth {
		return fmt.Errorf("%w: %s: switch nesting exceeds %d levels", ErrInvalidAutomation, automation, maxStepDepth)
	}
	for i, s := range steps {
		if err := validateStep(automation, s, depth); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func validateStep(automation string, s Step, depth int) error {
	switch s := s.(type) {
	case Delay:
		if s.Duration < 0 {
			return fmt.Errorf("%w: %s: delay must not be negative", ErrInvalidAutomation, automation)
		}
	case Compute:
		if !nameRegex.MatchString(s.Name) {
			return fmt.Errorf("%w: %s: invalid compute variable %q", ErrInvalidAutomation, automation, s.Name)
		}
		if s.Expr == nil {
			return fmt.Errorf("%w: %s: compute %s has no expression", ErrInvalidAutomation, automation, s.Name)
		}
	case Action:
		if s.Entity == "" || s.Attribute == "" {
			return fmt.Errorf("%w: %s: action entity and attribute are required", ErrInvalidAutomation, automation)
		}
	case Switch:
		for i, c := range s.Cases {
			if c.When == nil {
				return fmt.Errorf("%w: %s: switch case %d has no condition", ErrInvalidAutomation, automation, i)
			}
			if err := validateSteps(automation, c.Steps, depth+1); err != nil {
				return err
			}
		}
		return validateSteps(automation, s.Default, depth+1)
	case nil:
		return &UnsupportedConstructError{Construct: "step", Value: "<nil>"}
	default:
		return &UnsupportedConstructError{Construct: "step", Value: fmt.Sprintf("%T", s)}
	}
	return nil
}

// GenerateID creates a new UUID identifying one triggered run.
func GenerateID() string {
	return uuid.New().String()
}
