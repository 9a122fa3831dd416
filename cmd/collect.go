package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/bnema/potato-cli/internal/adapters/export"
	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	defaultNearbyRange = 1000
	defaultNearbyMax   = 100
	stdoutOutput       = "-"
	exportFileMode     = 0o644
)

var errClearNotConfirmed = errors.New("refusing to clear collected users without --yes")

func newCollectCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect, filter and export users",
	}

	cmd.AddCommand(
		newCollectNearbyCmd(app),
		newCollectGroupCmd(app),
		newCollectListCmd(app),
		newCollectExportCmd(app),
		newCollectClearCmd(app),
	)

	return cmd
}

func newCollectNearbyCmd(app *app) *cobra.Command {
	var query domain.NearbyQuery

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Scan for users near the current location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollection(cmd, "Scanning nearby users...", func(ctx context.Context, progress batch.ProgressFunc) (batch.Result[domain.CollectedUser], error) {
				return app.collection.CollectNearby(ctx, query, progress)
			})
		},
	}

	cmd.Flags().IntVar(&query.Range, "range", defaultNearbyRange, fmt.Sprintf("Search radius in meters (%d-%d)", domain.NearbyMinRange, domain.NearbyMaxRange))
	cmd.Flags().IntVar(&query.MaxUsers, "max", defaultNearbyMax, fmt.Sprintf("Maximum users to collect (%d-%d)", domain.NearbyMinUsers, domain.NearbyMaxUsers))

	return cmd
}

func newCollectGroupCmd(app *app) *cobra.Command {
	var link string
	var method string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Collect the members of a group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := domain.GroupQuery{Link: link, Method: domain.GroupMethod(method)}
			return runCollection(cmd, "Collecting group members...", func(ctx context.Context, progress batch.ProgressFunc) (batch.Result[domain.CollectedUser], error) {
				return app.collection.CollectGroup(ctx, query, progress)
			})
		},
	}

	cmd.Flags().StringVar(&link, "link", "", "Group link")
	cmd.Flags().StringVar(&method, "method", string(domain.GroupMethodAll), "Members to collect (all|active|recent)")
	_ = cmd.MarkFlagRequired("link")

	return cmd
}

func runCollection(cmd *cobra.Command, label string, collect func(context.Context, batch.ProgressFunc) (batch.Result[domain.CollectedUser], error)) error {
	var result batch.Result[domain.CollectedUser]
	err := runBatchSpinner(cmd.Context(), cmd.ErrOrStderr(), label, func(ctx context.Context, progress batch.ProgressFunc) error {
		var err error
		result, err = collect(ctx, progress)
		return err
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "collected %d of %d users\n", result.SucceededCount, result.RequestedCount)
	return err
}

// criteriaFlags binds the shared filter flags. Distance bounds stay nil unless
// the flag was given, so 0 is a real bound.
type criteriaFlags struct {
	source      string
	minDistance int
	maxDistance int
	activity    string
}

func (f *criteriaFlags) bind(flags *pflag.FlagSet) {
	flags.StringVar(&f.source, "source", "", "Only users from this source (nearby|group)")
	flags.IntVar(&f.minDistance, "min-distance", 0, "Only nearby users at least this many meters away")
	flags.IntVar(&f.maxDistance, "max-distance", 0, "Only nearby users at most this many meters away")
	flags.StringVar(&f.activity, "activity", "", "Only group members with this activity (active|inactive)")
}

func (f *criteriaFlags) criteria(flags *pflag.FlagSet) domain.Criteria {
	criteria := domain.Criteria{
		Source:   domain.Source(f.source),
		Activity: domain.Activity(f.activity),
	}
	if flags.Changed("min-distance") {
		criteria.MinDistance = domain.IntPtr(f.minDistance)
	}
	if flags.Changed("max-distance") {
		criteria.MaxDistance = domain.IntPtr(f.maxDistance)
	}

	return criteria
}

func newCollectListCmd(app *app) *cobra.Command {
	var filters criteriaFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := app.collection.List(cmd.Context(), filters.criteria(cmd.Flags()))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, users)
			}

			for _, user := range users {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
					user.ID,
					sanitizeForTerminal(user.Username),
					user.Phone,
					user.Source,
					userDetail(user),
				)
			}

			return nil
		},
	}

	filters.bind(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newCollectExportCmd(app *app) *cobra.Command {
	var filters criteriaFlags
	var rawFormat string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export collected users as json, csv or text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := export.ParseFormat(rawFormat)
			if err != nil {
				return err
			}

			result, err := app.collection.Export(cmd.Context(), filters.criteria(cmd.Flags()), format)
			if err != nil {
				return err
			}

			if output == stdoutOutput {
				_, err = cmd.OutOrStdout().Write(result.Data)
				return err
			}

			path := output
			if path == "" {
				path = result.FileName
			}
			if err := os.WriteFile(path, result.Data, exportFileMode); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d users to %s\n", result.Count, path)
			return err
		},
	}

	filters.bind(cmd.Flags())
	cmd.Flags().StringVar(&rawFormat, "format", string(export.FormatJSON), "Export format (json|csv|text)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, '-' for stdout (default: generated file name)")

	return cmd
}

func newCollectClearCmd(app *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every collected user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errClearNotConfirmed
			}
			if err := app.collection.Clear(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "collected users cleared")
			return err
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm clearing")

	return cmd
}

func userDetail(user domain.CollectedUser) string {
	switch {
	case user.Distance != nil:
		return strconv.Itoa(*user.Distance) + "m"
	case user.Group != "":
		return sanitizeForTerminal(user.Group) + " " + string(user.Activity)
	default:
		return "-"
	}
}
