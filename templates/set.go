package templates

// Set bundles the enter, exit and error templates used by one pipeline
// instance. A new Set carries the default message for each phase; each can
// be overridden independently, with validation at override time.
type Set struct {
	enter *Template
	exit  *Template
	err   *Template
}

// NewSet returns a set carrying the default templates.
func NewSet() *Set {
	return &Set{
		enter: mustNew(EnterKind, DefaultEnterMessage),
		exit:  mustNew(ExitKind, DefaultExitMessage),
		err:   mustNew(ErrorKind, DefaultErrorMessage),
	}
}

// NewDetailedSet returns a set carrying the detailed templates, which
// include argument types and values in every message.
func NewDetailedSet() *Set {
	return &Set{
		enter: mustNew(EnterKind, DetailEnterMessage),
		exit:  mustNew(ExitKind, DetailExitMessage),
		err:   mustNew(ErrorKind, DetailErrorMessage),
	}
}

func mustNew(kind Kind, text string) *Template {
	t, err := New(kind, text)
	if err != nil {
		panic(err)
	}
	return t
}

// SetEnter overrides the enter template.
func (s *Set) SetEnter(text string) error {
	t, err := New(EnterKind, text)
	if err != nil {
		return err
	}
	s.enter = t
	return nil
}

// SetExit overrides the exit template.
func (s *Set) SetExit(text string) error {
	t, err := New(ExitKind, text)
	if err != nil {
		return err
	}
	s.exit = t
	return nil
}

// SetError overrides the error template.
func (s *Set) SetError(text string) error {
	t, err := New(ErrorKind, text)
	if err != nil {
		return err
	}
	s.err = t
	return nil
}

// Enter returns the enter-phase template.
func (s *Set) Enter() *Template { return s.enter }

// Exit returns the exit-phase template.
func (s *Set) Exit() *Template { return s.exit }

// Error returns the error-phase template.
func (s *Set) Error() *Template { return s.err }
