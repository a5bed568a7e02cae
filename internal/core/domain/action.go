package domain

// ActionType identifies an authentication action.
type ActionType string

const (
	ActionLogin              ActionType = "[Authentication] Login"
	ActionLoginSuccess       ActionType = "[Authentication] Login Success"
	ActionLoginFailure       ActionType = "[Authentication] Login Failure"
	ActionRegister           ActionType = "[Authentication] Register"
	ActionRegisterSuccess    ActionType = "[Authentication] Register Success"
	ActionRegisterFailure    ActionType = "[Authentication] Register Failure"
	ActionSignInWithGoogle   ActionType = "[Authentication] Sign In With Google"
	ActionSignInWithFacebook ActionType = "[Authentication] Sign In With Facebook"
	ActionLogout             ActionType = "[Authentication] Logout"
	ActionLogoutSuccess      ActionType = "[Authentication] Logout Success"
)

// Action is a message dispatched to the store. Only the payload fields relevant
// to Type are set.
type Action struct {
	ID   string
	Type ActionType

	Email     string
	FirstName string
	Password  string

	User *User
	Err  error
}

func Login(email, password string) Action {
	return Action{Type: ActionLogin, Email: email, Password: password}
}

func LoginSuccess(user *User) Action {
	return Action{Type: ActionLoginSuccess, User: user}
}

func LoginFailure(err error) Action {
	return Action{Type: ActionLoginFailure, Err: err}
}

func Register(email, firstName, password string) Action {
	return Action{Type: ActionRegister, Email: email, FirstName: firstName, Password: password}
}

func RegisterSuccess(user *User) Action {
	return Action{Type: ActionRegisterSuccess, User: user}
}

func RegisterFailure(err error) Action {
	return Action{Type: ActionRegisterFailure, Err: err}
}

func SignInWithGoogle() Action {
	return Action{Type: ActionSignInWithGoogle}
}

func SignInWithFacebook() Action {
	return Action{Type: ActionSignInWithFacebook}
}

func Logout() Action {
	return Action{Type: ActionLogout}
}

func LogoutSuccess() Action {
	return Action{Type: ActionLogoutSuccess}
}

// AuthStatus is the per-attempt state: idle → requested → {succeeded, failed}.
type AuthStatus string

const (
	StatusIdle      AuthStatus = "idle"
	StatusRequested AuthStatus = "requested"
	StatusSucceeded AuthStatus = "succeeded"
	StatusFailed    AuthStatus = "failed"
)

// AuthState is what the store holds after reducing every dispatched action.
type AuthState struct {
	Status AuthStatus `json:"status"`
	User   *User      `json:"user,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Navigation targets.
const (
	RouteLogin     = "/auth/login"
	RouteWorkItems = "/apps/kanban"
	RouteRoot      = "/"
)
