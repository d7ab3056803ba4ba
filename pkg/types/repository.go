package types

// Storage keys inside a project namespace. The names match the keys the
// desktop application used in local storage so exported data stays readable.
const (
	KeyModules  = "testModules"
	KeyPlans    = "testPlans"
	KeyResults  = "testResults"
	KeyProjects = "projects"
)

// GlobalNamespace is the namespace that holds the project list.
const GlobalNamespace = "_global"

// StandardKeys lists the per-project keys in persistence order.
var StandardKeys = []string{
	KeyModules,
	KeyPlans,
	KeyResults,
}

// Repository persists the project list and one State per project.
// Save replaces the whole State for a project in one write; backends must
// make that write atomic so a failure leaves the previous State intact.
type Repository interface {
	// LoadProjects returns the global project list. An empty store returns an
	// empty slice and no error.
	LoadProjects() ([]Project, error)

	// SaveProjects replaces the global project list.
	SaveProjects(projects []Project) error

	// Load returns the State stored for projectID. A project that was never
	// saved yields an empty State.
	Load(projectID string) (State, error)

	// Save replaces the State stored for projectID.
	Save(projectID string, st State) error

	// Purge removes every key stored under projectID. Idempotent.
	Purge(projectID string) error

	// Close releases backend resources. Idempotent.
	Close() error
}
