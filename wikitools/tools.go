package wikitools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wiki-mcp/wiki-mcp-go/mwapi"
)

func searchPagesTool() mcp.Tool {
	return mcp.NewTool("search_pages",
		mcp.WithDescription("Search for pages in the wiki by full-text query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10, max 50)"),
			mcp.DefaultNumber(mwapi.DefaultLimit),
		),
	)
}

func readPageTool() mcp.Tool {
	return mcp.NewTool("read_page",
		mcp.WithDescription("Read the current content of a wiki page"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the page to read"),
		),
	)
}

func createPageTool() mcp.Tool {
	return mcp.NewTool("create_page",
		mcp.WithDescription("Create a new wiki page; fails if the page already exists"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the page to create"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Wikitext content of the new page"),
		),
		mcp.WithString("summary",
			mcp.Description("Edit summary"),
		),
	)
}

func updatePageTool() mcp.Tool {
	return mcp.NewTool("update_page",
		mcp.WithDescription("Overwrite the content of an existing wiki page"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the page to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New wikitext content of the page"),
		),
		mcp.WithString("summary",
			mcp.Description("Edit summary"),
		),
	)
}

func pageHistoryTool() mcp.Tool {
	return mcp.NewTool("get_page_history",
		mcp.WithDescription("List the most recent revisions of a wiki page"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the page"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of revisions (default 10)"),
			mcp.DefaultNumber(mwapi.DefaultLimit),
		),
	)
}

func pageCategoriesTool() mcp.Tool {
	return mcp.NewTool("get_page_categories",
		mcp.WithDescription("List the categories a wiki page belongs to"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the page"),
		),
	)
}
