package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/sessionstore"
)

func (a *app) issuesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Report and track civic issues",
	}
	cmd.AddCommand(
		a.issuesListCommand(),
		a.issuesReportCommand(),
		a.issuesStatusCommand(),
		a.issuesAssignCommand(),
	)
	return cmd
}

func (a *app) issuesListCommand() *cobra.Command {
	var q sessionstore.IssueQuery
	cmd := gated(&cobra.Command{
		Use:   "list",
		Short: "List reported issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client.ListIssues(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				a.view.note("No issues match.")
				return nil
			}
			rows := make([][]string, 0, len(page.Items))
			for _, is := range page.Items {
				rows = append(rows, []string{
					is.ID, is.Type, is.Location, string(is.Status), string(is.Priority),
					is.AssignedTo, is.DateReported.Format("2006-01-02"),
				})
			}
			a.view.table([]string{"ID", "TYPE", "LOCATION", "STATUS", "PRIORITY", "ASSIGNED", "REPORTED"}, rows)
			a.view.note(pageSummary(page))
			return nil
		},
	}, domain.ActionViewTracking)

	f := cmd.Flags()
	f.StringVar(&q.Status, "status", "", "pending, in_progress or resolved")
	f.StringVar(&q.Type, "type", "", "issue type")
	f.StringVar(&q.Department, "department", "", "assigned department id")
	f.BoolVar(&q.Mine, "mine", false, "only issues you reported")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", 20, "issues per page")
	return cmd
}

func pageSummary(p *sessionstore.IssuePage) string {
	return fmt.Sprintf("page %d of %d, %d issues", p.Page, max(p.TotalPages, 1), p.Total)
}

func (a *app) issuesReportCommand() *cobra.Command {
	var (
		r        sessionstore.IssueReport
		lat, lng float64
	)
	cmd := gated(&cobra.Command{
		Use:   "report",
		Short: "Report a new civic issue",
		Example: `  civic issues report --type pothole --location "MG Road, Ward 12" \
    --description "Deep pothole near the bus stop" --priority high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("lat") {
				r.Latitude = &lat
			}
			if cmd.Flags().Changed("lng") {
				r.Longitude = &lng
			}
			issue, err := a.client.ReportIssue(cmd.Context(), r)
			if err != nil {
				return err
			}
			a.view.line("Reported %s (%s, %s priority)", issue.ID, issue.Type, issue.Priority)
			return nil
		},
	}, domain.ActionReportIssue)

	f := cmd.Flags()
	f.StringVar(&r.Type, "type", "", "issue type, e.g. pothole or garbage")
	f.StringVar(&r.Location, "location", "", "where the issue is")
	f.StringVar(&r.Description, "description", "", "what is wrong")
	f.StringVar(&r.Priority, "priority", "", "high, medium or low (default medium)")
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func (a *app) issuesStatusCommand() *cobra.Command {
	return gated(&cobra.Command{
		Use:   "status <issue-id> <status>",
		Short: "Move an issue to in_progress or resolved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := a.client.UpdateIssueStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.view.line("%s is now %s", issue.ID, a.view.status(issue.Status))
			return nil
		},
	}, domain.ActionUpdateIssueStatus)
}

func (a *app) issuesAssignCommand() *cobra.Command {
	return gated(&cobra.Command{
		Use:   "assign <issue-id> <department-id>",
		Short: "Assign an issue to a department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := a.client.AssignIssue(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.view.line("%s assigned to %s", issue.ID, issue.AssignedTo)
			return nil
		},
	}, domain.ActionAssignIssue)
}
