package config

import "fmt"

// SetupStep is the progress of the documentation site setup wizard, stored
// in the config file under KeySetupStep.
type SetupStep int

const (
	// SetupNotStarted means no step has been recorded yet
	SetupNotStarted SetupStep = iota
	// SetupTemplateSelect means credentials are stored and a site template must be chosen
	SetupTemplateSelect
	// SetupPlaceholders means a template was copied and its placeholders need values
	SetupPlaceholders
	// SetupComplete means the site has been built at least once
	SetupComplete
)

var setupStepNames = map[SetupStep]string{
	SetupNotStarted:     "not_started",
	SetupTemplateSelect: "template_select",
	SetupPlaceholders:   "placeholders",
	SetupComplete:       "complete",
}

// String returns a readable name for the step
func (s SetupStep) String() string {
	if name, ok := setupStepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SetupStep(%d)", int(s))
}

// DocsAvailable reports whether the site has documents that can be edited
func (s SetupStep) DocsAvailable() bool {
	return s == SetupPlaceholders || s == SetupComplete
}

// SetupStep returns the recorded wizard step. A missing or empty value is
// SetupNotStarted; anything else that is not a known step is invalid config.
func (s *Store) SetupStep() (SetupStep, error) {
	value, ok := s.Get(KeySetupStep)
	if !ok || value == "" {
		return SetupNotStarted, nil
	}

	switch value {
	case "1":
		return SetupTemplateSelect, nil
	case "2":
		return SetupPlaceholders, nil
	case "3":
		return SetupComplete, nil
	}

	var errs ValidationErrors
	errs.Add(KeySetupStep, value, "unknown setup step")
	return SetupNotStarted, errs
}

// SetSetupStep records step in the store. Call Save to persist it.
func (s *Store) SetSetupStep(step SetupStep) error {
	switch step {
	case SetupNotStarted:
		s.Delete(KeySetupStep)
	case SetupTemplateSelect, SetupPlaceholders, SetupComplete:
		s.Set(KeySetupStep, fmt.Sprintf("%d", int(step)))
	default:
		var errs ValidationErrors
		errs.Add(KeySetupStep, step.String(), "unknown setup step")
		return errs
	}
	return nil
}
