package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clickclean/civic-platform/internal/authsession"
	"github.com/clickclean/civic-platform/internal/core/domain"
)

func (a *app) dashboardCommand() *cobra.Command {
	return gated(&cobra.Command{
		Use:   "dashboard",
		Short: "Show platform activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stats, err := a.client.Dashboard(ctx)
			if err != nil {
				return err
			}
			if u := authsession.FromContext(ctx).User(); u != nil {
				a.view.line("Welcome back, %s", displayName(u))
			}
			a.view.heading("Dashboard")
			a.view.line("  issues reported   %d", stats.TotalIssues)
			for _, s := range []domain.IssueStatus{domain.IssuePending, domain.IssueInProgress, domain.IssueResolved} {
				a.view.line("    %-15s %d", a.view.status(s), stats.ByStatus[s])
			}
			a.view.line("  resolution rate   %d%%", stats.ResolutionRate)
			a.view.line("  departments       %d (%d operational)", stats.Departments, stats.OperationalDeps)
			return nil
		},
	}, domain.ActionViewDashboard)
}

func (a *app) departmentsCommand() *cobra.Command {
	var typ string
	cmd := gated(&cobra.Command{
		Use:   "departments",
		Short: "List municipal departments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := a.client.Departments(cmd.Context(), typ)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(deps))
			for _, d := range deps {
				rows = append(rows, []string{d.ID, d.Name, d.Type, d.Location, d.Status})
			}
			a.view.table([]string{"ID", "NAME", "TYPE", "LOCATION", "STATUS"}, rows)
			return nil
		},
	}, domain.ActionViewTracking)
	cmd.Flags().StringVar(&typ, "type", "", "only departments of this type")
	return cmd
}

func (a *app) leaderboardCommand() *cobra.Command {
	var limit int
	cmd := gated(&cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top community reporters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := a.client.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				a.view.note("No resolved issues yet.")
				return nil
			}
			out := make([][]string, 0, len(rows))
			for _, r := range rows {
				out = append(out, []string{
					strconv.Itoa(r.Rank), r.Name,
					strconv.Itoa(r.IssuesResolved), strconv.Itoa(r.TrainingCompleted),
				})
			}
			a.view.table([]string{"RANK", "NAME", "RESOLVED", "TRAINING"}, out)
			return nil
		},
	}, domain.ActionViewLeaderboard)
	cmd.Flags().IntVar(&limit, "limit", 10, "number of reporters to show")
	return cmd
}

func (a *app) trainingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "training",
		Short: "Civic training modules",
	}

	list := gated(&cobra.Command{
		Use:   "list",
		Short: "List modules and your progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mods, err := a.client.Training(ctx)
			if err != nil {
				return err
			}
			signedIn := authsession.FromContext(ctx).IsAuthenticated()
			for _, m := range mods {
				line := fmt.Sprintf("%-22s %-40s %s", m.ID, m.Title, m.Duration)
				if signedIn {
					line += fmt.Sprintf("  %s %3d%%", a.view.bar(m.Progress), m.Progress)
				}
				a.view.line("%s", line)
			}
			if !signedIn {
				a.view.note("Sign in to track your progress.")
			}
			return nil
		},
	}, domain.ActionViewTraining)

	advance := gated(&cobra.Command{
		Use:   "advance <module-id>",
		Short: "Complete the next lesson of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.AdvanceTraining(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.Completed {
				a.view.line("%s completed", p.ModuleID)
				return nil
			}
			a.view.line("%s  %s %d%%", p.ModuleID, a.view.bar(p.Progress), p.Progress)
			return nil
		},
	}, domain.ActionAdvanceTraining)

	cmd.AddCommand(list, advance)
	return cmd
}

func (a *app) rewardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Browse the rewards marketplace",
	}
	var category string
	list := gated(&cobra.Command{
		Use:   "list",
		Short: "List rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Rewards(cmd.Context(), category)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(res.Items))
			for _, r := range res.Items {
				rows = append(rows, []string{r.ID, r.Name, r.Category, strconv.Itoa(r.Points)})
			}
			a.view.table([]string{"ID", "NAME", "CATEGORY", "POINTS"}, rows)
			a.view.note("categories: " + joinSorted(res.Categories))
			return nil
		},
	}, domain.ActionViewMarketplace)
	list.Flags().StringVar(&category, "category", "", "only rewards in this category")
	cmd.AddCommand(list)
	return cmd
}

func (a *app) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage your reward cart",
	}

	show := gated(&cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := a.client.Cart(cmd.Context())
			if err != nil {
				return err
			}
			a.printCart(cart)
			return nil
		},
	}, domain.ActionRedeemReward)

	add := gated(&cobra.Command{
		Use:   "add <reward-id>",
		Short: "Add a reward to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cart, err := a.client.AddToCart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printCart(cart)
			return nil
		},
	}, domain.ActionRedeemReward)

	remove := gated(&cobra.Command{
		Use:   "remove <reward-id>",
		Short: "Remove a reward from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cart, err := a.client.RemoveFromCart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printCart(cart)
			return nil
		},
	}, domain.ActionRedeemReward)

	cmd.AddCommand(show, add, remove)
	return cmd
}

func (a *app) printCart(cart *domain.Cart) {
	if len(cart.Items) == 0 {
		a.view.note("Your cart is empty.")
		return
	}
	rows := make([][]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		rows = append(rows, []string{
			it.Reward.ID, it.Reward.Name,
			strconv.Itoa(it.Quantity), strconv.Itoa(it.Reward.Points * it.Quantity),
		})
	}
	a.view.table([]string{"ID", "REWARD", "QTY", "POINTS"}, rows)
	a.view.line("%d items, %d points", cart.TotalItems, cart.TotalPoints)
}

func joinSorted(items []string) string {
	cp := append([]string(nil), items...)
	sort.Strings(cp)
	return strings.Join(cp, ", ")
}
