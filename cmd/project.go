package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Show or edit project details",
	RunE:  runProjectShow,
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project details",
	RunE:  runProjectShow,
}

var projectSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change project name, description or status",
	Long: `Changes project metadata. Status is advisory and does not affect the
schedule; allowed values are planning, inProgress and completed.`,
	RunE: runProjectSet,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored projects",
	Long: `Lists the projects the storage backend holds. A plan directory holds
one project; a database can hold many. The open project is starred.`,
	RunE: runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a stored project",
	Long: `Deletes a project and all its tasks. ID may be any unique prefix of the
project id shown by "project list". With file storage this removes the plan
directory. Deleting the open project from a database re-seeds it from the
plan directory on the next command.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectDelete,
}

func init() {
	projectDeleteCmd.Flags().BoolP("yes", "y", false, "confirm the deletion")
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectSetCmd.Flags().String("name", "", "new project name")
	projectSetCmd.Flags().String("description", "", "new markdown description")
	projectSetCmd.Flags().String("status", "", "new status")
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectSetCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectShow(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Load(ctx)
	if store == nil {
		return err
	}
	if err != nil {
		printWarning(err)
	}

	p := store.Project()
	res := store.Result()
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, p)
	case output.FormatCompact:
		output.ProjectCompact(os.Stdout, p, res)
	default:
		output.ProjectDetail(os.Stdout, p, res, store.Calendar())
	}
	return nil
}

func runProjectSet(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("name") && !flags.Changed("description") && !flags.Changed("status") {
		return clierr.New(clierr.NoChanges, "no changes specified")
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			if err := s.SetName(v); err != nil {
				return err
			}
		}
		if flags.Changed("description") {
			v, _ := flags.GetString("description")
			if err := s.SetDescription(v); err != nil {
				return err
			}
		}
		if flags.Changed("status") {
			v, _ := flags.GetString("status")
			return s.SetStatus(v)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p := store.Project()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, p)
	}
	output.Messagef(os.Stdout, "Updated project %q [%s]", p.Name, p.Status)
	return nil
}

func runProjectList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	projects, err := ws.Projects(ctx)
	if err != nil {
		return err
	}
	current := ws.Config().Project.ID

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, projects)
	case output.FormatCompact:
		output.ProjectsCompact(os.Stdout, projects, current)
	default:
		output.ProjectTable(os.Stdout, projects, current)
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return clierr.New(clierr.ConfirmationReq, "deleting a project requires --yes")
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	deleted, err := ws.DeleteProject(ctx, args[0])
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status": "deleted",
			"id":     deleted.ID,
			"name":   deleted.Name,
		})
	}
	output.Messagef(os.Stdout, "Deleted project %q (%s, %d tasks)", deleted.Name, deleted.ID, deleted.Tasks)
	return nil
}
