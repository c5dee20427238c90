package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// Commands provides command-line operations for the client
type Commands struct {
	client *Client
}

// NewCommands creates a new Commands instance
func NewCommands(client *Client) *Commands {
	return &Commands{
		client: client,
	}
}

// Check runs a duplicate check and displays the result
func (c *Commands) Check(ctx context.Context, rawURL string) error {
	result, err := c.client.CheckDuplicate(ctx, rawURL)
	if err != nil {
		return err
	}

	fmt.Printf("Normalized URL: %s\n", result.NormalizedURL)
	if result.Exists {
		fmt.Printf("Already listed: yes\n")
		if result.Tool != nil {
			fmt.Printf("Tool: %s (%s)\n", result.Tool.Name, result.Tool.ID)
			fmt.Printf("Status: %s\n", result.Tool.Status)
		}
	} else {
		fmt.Printf("Already listed: no\n")
	}
	fmt.Printf("Cached: %v\n", result.Cached)
	fmt.Printf("Processing Time: %dms\n", result.ProcessingTimeMS)

	return nil
}

// Get retrieves and displays a tool
func (c *Commands) Get(ctx context.Context, id string) error {
	tool, err := c.client.GetTool(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Tool Information:\n")
	fmt.Printf("ID: %s\n", tool.ID)
	fmt.Printf("Name: %s\n", tool.Name)
	if tool.Tagline != "" {
		fmt.Printf("Tagline: %s\n", tool.Tagline)
	}
	fmt.Printf("Website: %s\n", tool.WebsiteURL)
	fmt.Printf("Status: %s\n", tool.Status)
	if len(tool.Categories) > 0 {
		fmt.Printf("Categories: %s\n", strings.Join(tool.Categories, ", "))
	}
	fmt.Printf("Views: %d Upvotes: %d\n", tool.ViewCount, tool.UpvoteCount)
	fmt.Printf("Created At: %s\n", tool.CreatedAt.Format(time.RFC3339))

	return nil
}

// List displays a page of published tools in a table format
func (c *Commands) List(ctx context.Context, page, perPage int, category string) error {
	result, err := c.client.ListTools(ctx, page, perPage, category)
	if err != nil {
		return err
	}

	if len(result.Tools) == 0 {
		fmt.Println("No tools found")
		return nil
	}

	fmt.Printf("%-38s %-25s %-40s %s\n", "ID", "Name", "Website", "Upvotes")
	fmt.Println(strings.Repeat("-", 112))

	for _, tool := range result.Tools {
		website := tool.WebsiteURL
		if len(website) > 40 {
			website = website[:37] + "..."
		}
		fmt.Printf("%-38s %-25s %-40s %d\n", tool.ID, tool.Name, website, tool.UpvoteCount)
	}

	fmt.Printf("\nPage %d of %d tools total\n", result.Page, result.Total)
	return nil
}

// Submit submits a new tool and displays the created entry
func (c *Commands) Submit(ctx context.Context, name, websiteURL, tagline string, categories []string) error {
	tool, err := c.client.SubmitTool(ctx, &domain.SubmitToolRequest{
		Name:       name,
		WebsiteURL: websiteURL,
		Tagline:    tagline,
		Categories: categories,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Tool submitted for review:\n")
	fmt.Printf("ID: %s\n", tool.ID)
	fmt.Printf("Name: %s\n", tool.Name)
	fmt.Printf("Status: %s\n", tool.Status)
	return nil
}
