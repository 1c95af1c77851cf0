package client

import "time"

// User is the public view of an account.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Project is a board container.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskGroup is a board column. Position is the server's sparse sort key, not
// a display index.
type TaskGroup struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// Task is a board card.
type Task struct {
	ID          string     `json:"id"`
	TaskGroupID string     `json:"taskGroupId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Position    int        `json:"position"`
	Complete    bool       `json:"complete"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Assigned    []string   `json:"assigned,omitempty"`
}

// BoardGroup is a column with its ordered tasks.
type BoardGroup struct {
	TaskGroup
	Tasks []Task `json:"tasks"`
}

// Board is the full read model of one project.
type Board struct {
	Project Project      `json:"project"`
	Groups  []BoardGroup `json:"groups"`
}

// Clone returns a deep copy, used for mutation snapshots.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{Project: b.Project}
	out.Groups = make([]BoardGroup, len(b.Groups))
	for i, g := range b.Groups {
		cloned := g
		cloned.Tasks = make([]Task, len(g.Tasks))
		for j, t := range g.Tasks {
			ct := t
			if t.Assigned != nil {
				ct.Assigned = append([]string(nil), t.Assigned...)
			}
			if t.DueDate != nil {
				due := *t.DueDate
				ct.DueDate = &due
			}
			cloned.Tasks[j] = ct
		}
		out.Groups[i] = cloned
	}
	return out
}
