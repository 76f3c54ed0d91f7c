package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"roster-bot/internal/app/service"
	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

var (
	listSearch string
	listPage   int
	listSort   string
	listDesc   bool

	empName     string
	empAge      int
	empPosition string
	empSalary   int64
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of the roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := domain.ListQuery{Search: listSearch, Page: listPage, Sort: domain.SortField(listSort), Direction: domain.SortAsc}
		if listDesc {
			q.Direction = domain.SortDesc
		}
		if _, ok := domain.ParseSortField(listSort); !ok {
			return errors.Errorf("unknown sort field %q", listSort)
		}
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			page, err := ws.Roster.List(ctx, q)
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), page, q.Normalize())
			return nil
		})
	},
}

func printPage(out io.Writer, page domain.EmployeePage, q domain.ListQuery) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tPOSITION\tSALARY")
	for _, e := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.ID, e.Name, e.Age, e.Position, view.FormatSalary(e.Salary))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\npage %d/%d, %s employees, sorted by %s %s\n",
		q.Page, page.TotalPages(), view.FormatCount(page.Total), q.Sort, q.Direction)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create one employee",
	RunE: func(cmd *cobra.Command, args []string) error {
		row := domain.NewEmployee{Name: empName, Age: empAge, Position: empPosition, Salary: empSalary}
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			n, err := ws.Roster.Create(ctx, row)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queued\n", n)
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change the given fields of one employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := domain.EmployeePatch{ID: args[0]}
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch.Name = &empName
		}
		if flags.Changed("age") {
			patch.Age = &empAge
		}
		if flags.Changed("position") {
			patch.Position = &empPosition
		}
		if flags.Changed("salary") {
			patch.Salary = &empSalary
		}
		if patch.Empty() {
			return errors.New("nothing to update: pass at least one of --name, --age, --position, --salary")
		}
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			n, err := ws.Roster.Update(ctx, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queued\n", n)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Remove one employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			n, err := ws.Roster.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queued\n", n)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE.csv",
	Short: "Upload a CSV file of employees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open csv")
		}
		defer f.Close()

		errOut := cmd.ErrOrStderr()
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			n, err := ws.Roster.Import(ctx, filepath.Base(args[0]), f, func(p service.Progress) {
				fmt.Fprintf(errOut, "\r%s %3d%% (estimate)", progressBar(p.Percent), p.Percent)
				if p.Done {
					fmt.Fprintln(errOut)
				}
			})
			if err != nil {
				fmt.Fprintln(errOut)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queued\n", n)
			return nil
		})
	},
}

func progressBar(percent int) string {
	const width = 30
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "search text")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().StringVar(&listSort, "sort", string(domain.SortByName), "sort field: name, age, position or salary")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")

	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		c.Flags().StringVar(&empName, "name", "", "employee name")
		c.Flags().IntVar(&empAge, "age", 0, "age in years")
		c.Flags().StringVar(&empPosition, "position", "", "position")
		c.Flags().Int64Var(&empSalary, "salary", 0, "monthly salary in rupiah")
	}
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("position")

	rootCmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd, importCmd)
}
