package policy

// Conclusion is the verdict of one or more statements.
type Conclusion int

const (
	Unset Conclusion = iota
	Allow
	Deny
)

func ParseConclusion(s string) Conclusion {
	switch s {
	case "allow":
		return Allow
	case "deny":
		return Deny
	default:
		return Unset
	}
}

func (c Conclusion) String() string {
	switch c {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unset"
	}
}

// Or merges two verdicts. Contradicting verdicts cancel out to Unset.
func (c Conclusion) Or(other Conclusion) Conclusion {
	switch {
	case c == Unset:
		return other
	case other == Unset, c == other:
		return c
	default:
		return Unset
	}
}

// RequestContext is everything a condition can Load:
// requester, document.owner, document.collection, document.id and params.<key>.
type RequestContext struct {
	Requester string
	Document  DocumentRef
	Params    map[string]any
}

type DocumentRef struct {
	Owner      string
	Collection string
	ID         string
}

type PolicyDocument struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Versions    map[string]Policy `json:"versions"`
}

type Policy struct {
	Statements map[string][]Stmt `json:"statements"`
	Defaults   map[string]bool   `json:"defaults"`
}

type Stmt struct {
	Emit      string `json:"emit"`
	Condition Expr   `json:"condition"`
}

type Expr struct {
	Operator string `json:"op"`
	Args     []Expr `json:"args"`
	Const    any    `json:"const,omitempty"`
}

type EvalResult struct {
	Operator string `json:"op"`
	Result   any    `json:"result"`
	Error    string `json:"error,omitempty"`
}
