package query

import "github.com/egobogo/trellosync/internal/cache"

// Key families. The first segment of every key is one of these, so a
// family alone is a prefix covering every key of that resource type.
const (
	workspaceFamily = "workspace"
	boardFamily     = "board"
	listFamily      = "list"
	cardFamily      = "card"
	checklistFamily = "checklist"
	memberFamily    = "member"
)

// Every read has exactly one key shape. Detail keys double as the prefix of
// their entity's sub-collections: Board(id) covers BoardLists(id).

func Workspaces() cache.Key { return cache.Key{"workspaces"} }

func Workspace(id string) cache.Key { return cache.Key{workspaceFamily, id} }

func WorkspaceBoards(id string) cache.Key { return cache.Key{workspaceFamily, id, "boards"} }

func WorkspaceMembers(id string) cache.Key { return cache.Key{workspaceFamily, id, "members"} }

// Boards is the open boards of the authenticated member.
func Boards() cache.Key { return cache.Key{"boards"} }

func Board(id string) cache.Key { return cache.Key{boardFamily, id} }

func BoardLists(id string) cache.Key { return cache.Key{boardFamily, id, "lists"} }

func BoardMembers(id string) cache.Key { return cache.Key{boardFamily, id, "members"} }

func BoardLabels(id string) cache.Key { return cache.Key{boardFamily, id, "labels"} }

func BoardCards(id string) cache.Key { return cache.Key{boardFamily, id, "cards"} }

func List(id string) cache.Key { return cache.Key{listFamily, id} }

func ListCards(id string) cache.Key { return cache.Key{listFamily, id, "cards"} }

func Card(id string) cache.Key { return cache.Key{cardFamily, id} }

func CardComments(id string) cache.Key { return cache.Key{cardFamily, id, "comments"} }

func CardChecklists(id string) cache.Key { return cache.Key{cardFamily, id, "checklists"} }

func CardMembers(id string) cache.Key { return cache.Key{cardFamily, id, "members"} }

func Checklist(id string) cache.Key { return cache.Key{checklistFamily, id} }

// Me is the authenticated member. It shares the member family so profile
// updates reach it through Member(id) as well.
func Me() cache.Key { return cache.Key{memberFamily, "me"} }

func Member(id string) cache.Key { return cache.Key{memberFamily, id} }
