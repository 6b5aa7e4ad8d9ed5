package tracker

// Reference objects are the short forms the API embeds inside other
// objects. Each carries the link to its full form in URL.

// Issue is a short issue reference.
type Issue struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display"`
}

func (i Issue) String() string { return displayOr(i.Display, "Issue") }

// User is a short user reference.
type User struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Display string `json:"display"`
}

func (u User) String() string { return displayOr(u.Display, "User") }

// Sprint is a short sprint reference.
type Sprint struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Display string `json:"display"`
}

func (s Sprint) String() string { return displayOr(s.Display, "Sprint") }

// IssueType is a short issue type reference.
type IssueType struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display"`
}

func (t IssueType) String() string { return displayOr(t.Display, "IssueType") }

// Priority is an issue priority. Name is a string, or a map of language to
// name when priorities are requested with localized=false.
type Priority struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display,omitempty"`
	Version int    `json:"version,omitempty"`
	Name    any    `json:"name,omitempty"`
	Order   int    `json:"order,omitempty"`
}

func (p Priority) String() string {
	if p.Display != "" {
		return p.Display
	}
	if name, ok := p.Name.(string); ok && name != "" {
		return name
	}
	return "Priority"
}

// Queue is a short queue reference.
type Queue struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display"`
}

func (q Queue) String() string { return displayOr(q.Display, "Queue") }

// Status is an issue status reference.
type Status struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display"`
}

func (s Status) String() string { return displayOr(s.Display, "Status") }

// Resolution is an issue resolution reference.
type Resolution struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display"`
}

func (r Resolution) String() string { return displayOr(r.Display, "Resolution") }

// Workflow is a workflow reference.
type Workflow struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Key     string `json:"key"`
	Display string `json:"display"`
}

func (w Workflow) String() string { return displayOr(w.Display, "Workflow") }

// FullIssue is an issue as returned by the issue endpoints.
type FullIssue struct {
	Base
	URL                  string    `json:"self"`
	ID                   string    `json:"id"`
	Key                  string    `json:"key"`
	Version              int       `json:"version"`
	Summary              string    `json:"summary"`
	Parent               *Issue    `json:"parent,omitempty"`
	Description          string    `json:"description,omitempty"`
	Sprint               []Sprint  `json:"sprint,omitempty"`
	Type                 IssueType `json:"type"`
	Priority             Priority  `json:"priority"`
	Followers            []User    `json:"followers,omitempty"`
	Queue                Queue     `json:"queue"`
	Favorite             bool      `json:"favorite"`
	Assignee             *User     `json:"assignee,omitempty"`
	LastCommentUpdatedAt *Time     `json:"lastCommentUpdatedAt,omitempty"`
	Aliases              []string  `json:"aliases,omitempty"`
	UpdatedBy            *User     `json:"updatedBy,omitempty"`
	CreatedAt            Time      `json:"createdAt"`
	CreatedBy            User      `json:"createdBy"`
	Votes                int       `json:"votes"`
	UpdatedAt            *Time     `json:"updatedAt,omitempty"`
	Status               Status    `json:"status"`
	PreviousStatus       *Status   `json:"previousStatus,omitempty"`
	Direction            string    `json:"direction,omitempty"`
}

func (i FullIssue) String() string { return displayOr(i.Key, "FullIssue") }

// FullQueue is a queue as returned by the queue endpoints.
type FullQueue struct {
	Base
	URL               string            `json:"self"`
	ID                int64             `json:"id"`
	Key               string            `json:"key"`
	Version           int               `json:"version"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Lead              User              `json:"lead"`
	AssignAuto        bool              `json:"assignAuto"`
	DefaultType       IssueType         `json:"defaultType"`
	DefaultPriority   Priority          `json:"defaultPriority"`
	TeamUsers         []User            `json:"teamUsers"`
	IssueTypes        []IssueType       `json:"issueTypes"`
	Versions          []QueueVersion    `json:"versions"`
	Workflows         []Workflow        `json:"workflows"`
	DenyVoting        bool              `json:"denyVoting"`
	IssueTypesConfig  []IssueTypeConfig `json:"issueTypesConfig"`
}

func (q FullQueue) String() string { return displayOr(q.Name, "FullQueue") }

// IssueTypeConfig binds an issue type to its workflow and resolutions
// within a queue.
type IssueTypeConfig struct {
	Base
	IssueType   IssueType    `json:"issueType"`
	Workflow    Workflow     `json:"workflow"`
	Resolutions []Resolution `json:"resolutions"`
}

// QueueVersion is a release version of a queue.
type QueueVersion struct {
	Base
	URL         string `json:"self"`
	ID          int64  `json:"id"`
	Version     int    `json:"version"`
	Queue       Queue  `json:"queue"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   *Date  `json:"startDate,omitempty"`
	DueDate     *Date  `json:"dueDate,omitempty"`
	Released    bool   `json:"released"`
	Archived    bool   `json:"archived"`
}

func (v QueueVersion) String() string { return displayOr(v.Name, "QueueVersion") }

// QueueField is an issue field available in a queue.
type QueueField struct {
	Base
	URL             string                     `json:"self"`
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Version         int                        `json:"version"`
	Schema          QueueFieldSchema           `json:"schema"`
	Readonly        bool                       `json:"readonly"`
	Options         bool                       `json:"options"`
	Suggest         bool                       `json:"suggest"`
	OptionsProvider *QueueFieldOptionsProvider `json:"optionsProvider,omitempty"`
	QueryProvider   *QueueFieldQueryProvider   `json:"queryProvider,omitempty"`
	Order           int                        `json:"order"`
}

func (f QueueField) String() string { return displayOr(f.Name, "QueueField") }

// QueueFieldSchema describes the value type of a queue field.
type QueueFieldSchema struct {
	Base
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Items    string `json:"items,omitempty"`
}

// QueueFieldOptionsProvider lists the allowed values of a queue field.
type QueueFieldOptionsProvider struct {
	Base
	Type     string `json:"type"`
	Values   []any  `json:"values"`
	Defaults []any  `json:"defaults"`
}

// QueueFieldQueryProvider describes how the field is queried.
type QueueFieldQueryProvider struct {
	Base
	Type string `json:"type"`
}

// Comment is an issue comment.
type Comment struct {
	Base
	URL       string `json:"self"`
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedBy User   `json:"createdBy"`
	UpdatedBy *User  `json:"updatedBy,omitempty"`
	CreatedAt Time   `json:"createdAt"`
	UpdatedAt *Time  `json:"updatedAt,omitempty"`
	Version   int    `json:"version"`
}

// Worklog is a time spent record on an issue.
type Worklog struct {
	Base
	URL       string   `json:"self"`
	ID        int64    `json:"id"`
	Version   int      `json:"version"`
	Issue     Issue    `json:"issue"`
	CreatedBy User     `json:"createdBy"`
	UpdatedBy *User    `json:"updatedBy,omitempty"`
	CreatedAt Time     `json:"createdAt"`
	UpdatedAt *Time    `json:"updatedAt,omitempty"`
	Start     Time     `json:"start"`
	Duration  Duration `json:"duration"`
}

// Attachment is a file attached to an issue.
type Attachment struct {
	Base
	URL       string              `json:"self"`
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Content   string              `json:"content"`
	Thumbnail string              `json:"thumbnail,omitempty"`
	CreatedBy User                `json:"createdBy"`
	CreatedAt Time                `json:"createdAt"`
	Mimetype  string              `json:"mimetype"`
	Size      int64               `json:"size"`
	Metadata  *AttachmentMetadata `json:"metadata,omitempty"`
	CommentID string              `json:"commentId,omitempty"`
}

func (a Attachment) String() string { return displayOr(a.Name, "Attachment") }

// AttachmentMetadata holds extra attachment properties, such as image size.
type AttachmentMetadata struct {
	Base
	Size string `json:"size,omitempty"`
}

// LinkDirection is the side of a link the requested issue is on.
type LinkDirection string

const (
	LinkInward  LinkDirection = "inward"
	LinkOutward LinkDirection = "outward"
)

// LinkType names both sides of an issue link, e.g. "blocks" and
// "is blocked by".
type LinkType struct {
	Base
	URL     string `json:"self"`
	ID      string `json:"id"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// IssueLink is a link between the requested issue and Object.
type IssueLink struct {
	Base
	URL       string        `json:"self"`
	ID        int64         `json:"id"`
	Type      LinkType      `json:"type"`
	Direction LinkDirection `json:"direction"`
	Object    Issue         `json:"object"`
	CreatedBy User          `json:"createdBy"`
	UpdatedBy *User         `json:"updatedBy,omitempty"`
	CreatedAt Time          `json:"createdAt"`
	UpdatedAt *Time         `json:"updatedAt,omitempty"`
	Assignee  *User         `json:"assignee,omitempty"`
	Status    Status        `json:"status"`
}

// Name returns the link type name for the link's direction.
func (l IssueLink) Name() string {
	if l.Direction == LinkInward {
		return l.Type.Inward
	}
	return l.Type.Outward
}

func displayOr(display, fallback string) string {
	if display != "" {
		return display
	}
	return fallback
}
