package flows

import "context"

// Deps groups flow dependency sets. The root engine builds this once.
type Deps struct {
	Validate ValidateDeps
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
}

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring. Refresh and
// logout validate through the same validate deps unless overridden.
func New(deps Deps) Service {
	s := Service{deps: deps}
	if s.deps.Refresh.Validate == nil {
		s.deps.Refresh.Validate = s.Validate
	}
	if s.deps.Logout.Validate == nil {
		s.deps.Logout.Validate = s.Validate
	}
	return s
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Parse != nil
}

func (s Service) Validate(ctx context.Context, token, declaredTenant string) ValidateResult {
	return RunValidate(ctx, token, declaredTenant, s.deps.Validate)
}

func (s Service) Login(ctx context.Context, in LoginInput) LoginResult {
	return RunLogin(ctx, in, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, token, declaredTenant, ip string) RefreshResult {
	return RunRefresh(ctx, token, declaredTenant, ip, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, token, declaredTenant string) LogoutResult {
	return RunLogout(ctx, token, declaredTenant, s.deps.Logout)
}
