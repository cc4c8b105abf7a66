package board

import "time"

// Workspace is a Trello organization.
type Workspace struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Desc        string   `json:"desc,omitempty"`
	URL         string   `json:"url,omitempty"`
	Website     string   `json:"website,omitempty"`
	IDBoards    []string `json:"idBoards,omitempty"`
}

// BoardPrefs carries the subset of board preferences the client renders.
type BoardPrefs struct {
	PermissionLevel string `json:"permissionLevel,omitempty"`
	Background      string `json:"background,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Board represents a Kanban board.
type Board struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Desc           string      `json:"desc,omitempty"`
	Closed         bool        `json:"closed"`
	IDOrganization string      `json:"idOrganization,omitempty"`
	URL            string      `json:"url,omitempty"`
	ShortURL       string      `json:"shortUrl,omitempty"`
	Starred        bool        `json:"starred,omitempty"`
	Prefs          *BoardPrefs `json:"prefs,omitempty"`
}

// List represents a board column.
type List struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Closed  bool    `json:"closed"`
	IDBoard string  `json:"idBoard"`
	Pos     float64 `json:"pos"`
}

// CardBadges are the counters Trello embeds in card summaries.
type CardBadges struct {
	Comments           int  `json:"comments"`
	CheckItems         int  `json:"checkItems"`
	CheckItemsChecked  int  `json:"checkItemsChecked"`
	Attachments        int  `json:"attachments"`
	Votes              int  `json:"votes,omitempty"`
	DescriptionPresent bool `json:"description"`
}

// Card represents a task within a list.
type Card struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Desc             string      `json:"desc,omitempty"`
	Closed           bool        `json:"closed"`
	IDList           string      `json:"idList"`
	IDBoard          string      `json:"idBoard"`
	Pos              float64     `json:"pos"`
	Due              *time.Time  `json:"due,omitempty"`
	DueComplete      bool        `json:"dueComplete,omitempty"`
	IDMembers        []string    `json:"idMembers,omitempty"`
	IDLabels         []string    `json:"idLabels,omitempty"`
	IDChecklists     []string    `json:"idChecklists,omitempty"`
	Labels           []Label     `json:"labels,omitempty"`
	Members          []Member    `json:"members,omitempty"`
	Badges           *CardBadges `json:"badges,omitempty"`
	URL              string      `json:"url,omitempty"`
	ShortURL         string      `json:"shortUrl,omitempty"`
	DateLastActivity *time.Time  `json:"dateLastActivity,omitempty"`
}

// Label is a colored tag defined on a board.
type Label struct {
	ID      string `json:"id"`
	IDBoard string `json:"idBoard,omitempty"`
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
}

// Check item states as Trello reports them.
const (
	CheckItemComplete   = "complete"
	CheckItemIncomplete = "incomplete"
)

// CheckItem is one line of a checklist.
type CheckItem struct {
	ID          string  `json:"id"`
	IDChecklist string  `json:"idChecklist,omitempty"`
	Name        string  `json:"name"`
	State       string  `json:"state"`
	Pos         float64 `json:"pos"`
}

// Complete reports whether the item is checked.
func (i CheckItem) Complete() bool {
	return i.State == CheckItemComplete
}

// Checklist belongs to a card.
type Checklist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	IDCard     string      `json:"idCard"`
	IDBoard    string      `json:"idBoard,omitempty"`
	Pos        float64     `json:"pos"`
	CheckItems []CheckItem `json:"checkItems"`
}

// Member represents a Trello user, including the authenticated profile.
type Member struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	FullName        string   `json:"fullName"`
	Initials        string   `json:"initials,omitempty"`
	AvatarURL       string   `json:"avatarUrl,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	Email           string   `json:"email,omitempty"`
	URL             string   `json:"url,omitempty"`
	IDOrganizations []string `json:"idOrganizations,omitempty"`
}

// Comment is a "commentCard" action on a card.
type Comment struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	MemberCreator *Member   `json:"memberCreator,omitempty"`
	Data          struct {
		Text string `json:"text"`
	} `json:"data"`
}

// Text returns the comment body.
func (c Comment) Text() string {
	return c.Data.Text
}
