package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"blogadmin/internal/models"
	"blogadmin/internal/resource"
	"blogadmin/internal/service"

	"github.com/spf13/cobra"
)

var (
	// List flags
	search    string
	sortBy    string
	direction string
	page      int
	perPage   int

	// Trashed flags
	limit  int
	offset int
)

// listCmd prints one page of the posts table
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts as the admin table shows them",
	Long: `List posts as the admin table shows them.

Examples:
  blogadmin list                              # Newest publication first
  blogadmin list --search go --per-page 25    # Filter by title
  blogadmin list --sort published_at --direction asc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.close()

		result, err := e.posts.ListPosts(cmd.Context(), service.ListPostsInput{
			Search:    search,
			Sort:      sortBy,
			Direction: direction,
			Page:      page,
			PerPage:   perPage,
		})
		if err != nil {
			return err
		}

		rows := resource.RenderRows(result.Posts, resource.RowContext{
			Now:      time.Now(),
			Location: e.cfg.Location(),
		})
		if jsonOutput {
			return printJSON(cmd, rows)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPUBLISHED\tSTATUS\tDESCRIPTION")
		for _, row := range rows {
			title := row.Cells[resource.FieldTitle]
			badge := row.Cells[resource.FieldPublishedAt]
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", row.ID, title.Value, badge.Value, badge.Color, title.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d posts)\n", result.Page, result.LastPage, result.Total)
		return nil
	},
}

// trashedCmd lists soft-deleted posts
var trashedCmd = &cobra.Command{
	Use:   "trashed",
	Short: "List soft-deleted posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.close()

		posts, err := e.posts.ListTrashedPosts(cmd.Context(), limit, offset)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, posts)
		}
		if len(posts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No deleted posts")
			return nil
		}
		return printTrashed(cmd, posts)
	},
}

// restoreCmd brings soft-deleted posts back
var restoreCmd = &cobra.Command{
	Use:   "restore <id> [id...]",
	Short: "Restore soft-deleted posts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.close()

		for _, id := range ids {
			if err := e.posts.RestorePost(cmd.Context(), id); err != nil {
				return fmt.Errorf("restore post %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Restored post %d\n", id)
		}
		return nil
	},
}

// reslugCmd recomputes every slug from its title
var reslugCmd = &cobra.Command{
	Use:   "reslug",
	Short: "Recompute slugs from titles",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.close()

		changed, err := e.posts.Reslug(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Updated %d slugs\n", changed)
		return nil
	},
}

func printTrashed(cmd *cobra.Command, posts []*models.Post) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDELETED")
	for _, p := range posts {
		deleted := ""
		if p.DeletedAt.Valid {
			deleted = p.DeletedAt.Time.Format(resource.DateTimeFormat)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Title, deleted)
	}
	return w.Flush()
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid post id %q", a)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func init() {
	listCmd.Flags().StringVar(&search, "search", "", "Filter by title")
	listCmd.Flags().StringVar(&sortBy, "sort", resource.DefaultSortColumn, "Sort column")
	listCmd.Flags().StringVar(&direction, "direction", resource.DefaultSortDirection, "Sort direction (asc or desc)")
	listCmd.Flags().IntVar(&page, "page", 1, "Page number")
	listCmd.Flags().IntVar(&perPage, "per-page", resource.DefaultPerPage, "Rows per page (5, 10, 25 or 50)")

	trashedCmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows")
	trashedCmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")

	rootCmd.AddCommand(listCmd, trashedCmd, restoreCmd, reslugCmd)
}
