package mwapi

import (
	"context"
	"strings"
)

const (
	// DefaultLimit applies when a caller passes no limit (or zero).
	DefaultLimit = 10
	// MaxSearchLimit caps srlimit regardless of what the caller asked for.
	MaxSearchLimit = 50
)

// PageMissing is the terminal outcome for operations addressing a title that
// does not exist. It is not an error.
type PageMissing struct {
	Title   string `json:"title"`
	Exists  bool   `json:"exists"`
	Message string `json:"message"`
}

func missingPage(title string) *PageMissing {
	return &PageMissing{Title: title, Exists: false, Message: "Page does not exist"}
}

// RevisionMeta describes one revision of a page.
type RevisionMeta struct {
	ID        int64  `json:"id,omitempty"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Comment   string `json:"comment"`
}

// SearchMatch is one search hit.
type SearchMatch struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Size      int    `json:"size"`
	WordCount int    `json:"wordcount"`
	Timestamp string `json:"timestamp"`
}

// SearchResult is the reshaped result of a full-text search.
type SearchResult struct {
	Query     string        `json:"query"`
	TotalHits int           `json:"totalHits"`
	Results   []SearchMatch `json:"results"`
}

type searchParams struct {
	Action string   `url:"action"`
	List   string   `url:"list"`
	Search string   `url:"srsearch"`
	Limit  int      `url:"srlimit"`
	Info   string   `url:"srinfo"`
	Prop   []string `url:"srprop"`
}

// Search runs a full-text search. The limit defaults to DefaultLimit and is
// clamped to MaxSearchLimit before the request goes out.
func (c *Client) Search(ctx context.Context, search string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	resp, err := c.Get(ctx, searchParams{
		Action: "query",
		List:   "search",
		Search: search,
		Limit:  limit,
		Info:   "totalhits",
		Prop:   []string{"size", "wordcount", "timestamp", "snippet"},
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Query struct {
			SearchInfo struct {
				TotalHits int `json:"totalhits"`
			} `json:"searchinfo"`
			Search []SearchMatch `json:"search"`
		} `json:"query"`
	}
	if err := resp.Into(&out); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Query:     search,
		TotalHits: out.Query.SearchInfo.TotalHits,
		Results:   out.Query.Search,
	}
	if result.Results == nil {
		result.Results = []SearchMatch{}
	}
	return result, nil
}

// Page is the reshaped content of an existing page.
type Page struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	LastEdit RevisionMeta `json:"lastEdit"`
}

type readParams struct {
	Action string   `url:"action"`
	Prop   string   `url:"prop"`
	Titles string   `url:"titles"`
	RvProp []string `url:"rvprop"`
	RvSlot string   `url:"rvslots"`
}

// pageEnvelope covers the query.pages shapes shared by read, history and
// categories (formatversion=2: pages is a flat array).
type pageEnvelope struct {
	Query struct {
		Pages []struct {
			Title      string `json:"title"`
			Missing    bool   `json:"missing"`
			Revisions  []rawRevision `json:"revisions"`
			Categories []struct {
				Title string `json:"title"`
			} `json:"categories"`
		} `json:"pages"`
	} `json:"query"`
}

type rawRevision struct {
	RevID     int64  `json:"revid"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Comment   string `json:"comment"`
	Slots     struct {
		Main struct {
			Content string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}

// ReadPage fetches the current content of a page. Exactly one of the two
// results is non-nil: the page, or the missing-page outcome.
func (c *Client) ReadPage(ctx context.Context, title string) (*Page, *PageMissing, error) {
	resp, err := c.Get(ctx, readParams{
		Action: "query",
		Prop:   "revisions",
		Titles: title,
		RvProp: []string{"content", "timestamp", "user", "comment"},
		RvSlot: "main",
	})
	if err != nil {
		return nil, nil, err
	}

	var out pageEnvelope
	if err := resp.Into(&out); err != nil {
		return nil, nil, err
	}
	if len(out.Query.Pages) == 0 || out.Query.Pages[0].Missing {
		return nil, missingPage(title), nil
	}

	page := out.Query.Pages[0]
	p := &Page{Title: page.Title}
	if len(page.Revisions) > 0 {
		rev := page.Revisions[0]
		p.Content = rev.Slots.Main.Content
		p.LastEdit = RevisionMeta{
			Timestamp: rev.Timestamp,
			User:      rev.User,
			Comment:   rev.Comment,
		}
	}
	return p, nil, nil
}

// EditResult is the reshaped result of a create or update.
type EditResult struct {
	Result       string `json:"result"`
	Title        string `json:"title"`
	PageID       int64  `json:"pageId,omitempty"`
	NewRevID     int64  `json:"newRevId,omitempty"`
	NewTimestamp string `json:"newTimestamp,omitempty"`
}

type editParams struct {
	Action     string `url:"action"`
	Title      string `url:"title"`
	Text       string `url:"text"`
	Summary    string `url:"summary,omitempty"`
	Token      string `url:"token"`
	CreateOnly bool   `url:"createonly,omitempty"`
}

// CreatePage creates a new page. The createonly flag makes the call fail
// remotely if the title already exists.
func (c *Client) CreatePage(ctx context.Context, title, text, summary string) (*EditResult, error) {
	return c.edit(ctx, title, text, summary, true)
}

// UpdatePage overwrites the content of a page, creating it if needed.
func (c *Client) UpdatePage(ctx context.Context, title, text, summary string) (*EditResult, error) {
	return c.edit(ctx, title, text, summary, false)
}

func (c *Client) edit(ctx context.Context, title, text, summary string, createOnly bool) (*EditResult, error) {
	token, err := c.EditToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.Post(ctx, editParams{
		Action:     "edit",
		Title:      title,
		Text:       text,
		Summary:    summary,
		Token:      token,
		CreateOnly: createOnly,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Edit struct {
			Result       string `json:"result"`
			Title        string `json:"title"`
			PageID       int64  `json:"pageid"`
			NewRevID     int64  `json:"newrevid"`
			NewTimestamp string `json:"newtimestamp"`
		} `json:"edit"`
	}
	if err := resp.Into(&out); err != nil {
		return nil, err
	}

	return &EditResult{
		Result:       out.Edit.Result,
		Title:        out.Edit.Title,
		PageID:       out.Edit.PageID,
		NewRevID:     out.Edit.NewRevID,
		NewTimestamp: out.Edit.NewTimestamp,
	}, nil
}

// PageHistory is the reshaped revision history of a page.
type PageHistory struct {
	Title     string         `json:"title"`
	Revisions []RevisionMeta `json:"revisions"`
}

type historyParams struct {
	Action string   `url:"action"`
	Prop   string   `url:"prop"`
	Titles string   `url:"titles"`
	RvProp []string `url:"rvprop"`
	Limit  int      `url:"rvlimit"`
}

// History fetches the most recent revisions of a page, newest first.
func (c *Client) History(ctx context.Context, title string, limit int) (*PageHistory, *PageMissing, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	resp, err := c.Get(ctx, historyParams{
		Action: "query",
		Prop:   "revisions",
		Titles: title,
		RvProp: []string{"timestamp", "user", "comment", "ids"},
		Limit:  limit,
	})
	if err != nil {
		return nil, nil, err
	}

	var out pageEnvelope
	if err := resp.Into(&out); err != nil {
		return nil, nil, err
	}
	if len(out.Query.Pages) == 0 || out.Query.Pages[0].Missing {
		return nil, missingPage(title), nil
	}

	page := out.Query.Pages[0]
	hist := &PageHistory{Title: page.Title, Revisions: []RevisionMeta{}}
	for _, rev := range page.Revisions {
		hist.Revisions = append(hist.Revisions, RevisionMeta{
			ID:        rev.RevID,
			Timestamp: rev.Timestamp,
			User:      rev.User,
			Comment:   rev.Comment,
		})
	}
	return hist, nil, nil
}

// PageCategories is the reshaped category membership of a page.
type PageCategories struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
}

type categoriesParams struct {
	Action string `url:"action"`
	Prop   string `url:"prop"`
	Titles string `url:"titles"`
	Limit  string `url:"cllimit"`
}

// Categories fetches every category a page belongs to. The namespace prefix
// is stripped from the returned names.
func (c *Client) Categories(ctx context.Context, title string) (*PageCategories, *PageMissing, error) {
	resp, err := c.Get(ctx, categoriesParams{
		Action: "query",
		Prop:   "categories",
		Titles: title,
		Limit:  "max",
	})
	if err != nil {
		return nil, nil, err
	}

	var out pageEnvelope
	if err := resp.Into(&out); err != nil {
		return nil, nil, err
	}
	if len(out.Query.Pages) == 0 || out.Query.Pages[0].Missing {
		return nil, missingPage(title), nil
	}

	page := out.Query.Pages[0]
	cats := &PageCategories{Title: page.Title, Categories: []string{}}
	for _, cat := range page.Categories {
		name := cat.Title
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[i+1:]
		}
		cats.Categories = append(cats.Categories, name)
	}
	return cats, nil, nil
}
