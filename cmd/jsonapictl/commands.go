package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	jsonapibridge "github.com/opengovern/jsonapi-bridge"
)

// app carries what every subcommand needs once flags and config are loaded.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}
	a.log.SetOutput(os.Stderr)

	cmd := &cobra.Command{
		Use:           "jsonapictl",
		Short:         "run data provider operations against a JSONAPI backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.log.SetOutput(cmd.ErrOrStderr())
			if err := loadConfig(a.v, cmd.Flags(), a.log); err != nil {
				return err
			}
			if a.v.GetBool(flagDebug) {
				a.log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	registerGlobalFlags(cmd.PersistentFlags())
	cmd.AddCommand(
		a.newListCmd(),
		a.newGetCmd(),
		a.newCreateCmd(),
		a.newUpdateCmd(),
		a.newDeleteCmd(),
		a.newManyCmd(),
		a.newReferenceCmd(),
	)
	return cmd
}

func (a *app) dispatch(cmd *cobra.Command, kind jsonapibridge.OperationKind, resource string, params jsonapibridge.Params) error {
	bridge, reg, err := newBridge(cmd.Context(), a.v, a.log)
	if err != nil {
		return err
	}
	result, err := bridge.Dispatch(cmd.Context(), kind, resource, params)
	if reg != nil {
		if merr := writeMetrics(cmd.ErrOrStderr(), reg); merr != nil {
			a.log.WithError(merr).Warn("write metrics")
		}
	}
	if err != nil {
		var statusErr *jsonapibridge.StatusError
		if errors.As(err, &statusErr) && len(statusErr.Body) > 0 {
			a.log.WithField("status", statusErr.StatusCode).Warn(string(statusErr.Body))
		}
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

// writeMetrics dumps reg in the Prometheus text exposition format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "encode metrics")
		}
	}
	return nil
}

func printResult(w io.Writer, result *jsonapibridge.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (a *app) newListCmd() *cobra.Command {
	var (
		page, perPage int
		filters       []string
		sortField     string
		order         string
	)
	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "list a page of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}
			params := jsonapibridge.Params{
				Pagination: jsonapibridge.Pagination{Page: page, PerPage: perPage},
				Filter:     filter,
			}
			if sortField != "" {
				params.Sort = &jsonapibridge.Sort{
					Field: sortField,
					Order: jsonapibridge.SortOrder(strings.ToUpper(order)),
				}
			}
			return a.dispatch(cmd, jsonapibridge.OpGetList, args[0], params)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 25, "records per page")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, `filter as field=value; "!:v" excludes, true/false match exactly, anything else is a substring match`)
	cmd.Flags().StringVar(&sortField, "sort", "", "field to sort by")
	cmd.Flags().StringVar(&order, "order", string(jsonapibridge.SortAsc), "sort order, ASC or DESC")
	return cmd
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get RESOURCE ID",
		Short: "fetch one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, jsonapibridge.OpGetOne, args[0], jsonapibridge.Params{ID: args[1]})
		},
	}
}

func (a *app) newCreateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create RESOURCE",
		Short: "create a record from a JSON object of attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseData(data)
			if err != nil {
				return err
			}
			return a.dispatch(cmd, jsonapibridge.OpCreate, args[0], jsonapibridge.Params{Data: attrs})
		},
	}
	cmd.Flags().StringVar(&data, "data", "{}", "record attributes as a JSON object")
	return cmd
}

func (a *app) newUpdateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update RESOURCE ID",
		Short: "update a record from a JSON object of attributes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseData(data)
			if err != nil {
				return err
			}
			return a.dispatch(cmd, jsonapibridge.OpUpdate, args[0], jsonapibridge.Params{ID: args[1], Data: attrs})
		},
	}
	cmd.Flags().StringVar(&data, "data", "{}", "record attributes as a JSON object")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESOURCE ID",
		Short: "delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, jsonapibridge.OpDelete, args[0], jsonapibridge.Params{ID: args[1]})
		},
	}
}

func (a *app) newManyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "many RESOURCE ID...",
		Short: "fetch several records by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, jsonapibridge.OpGetMany, args[0], jsonapibridge.Params{IDs: args[1:]})
		},
	}
}

func (a *app) newReferenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reference RESOURCE TARGET ID",
		Short: "fetch the records whose TARGET field equals ID",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, jsonapibridge.OpGetManyReference, args[0], jsonapibridge.Params{Target: args[1], ID: args[2]})
		},
	}
}

// parseFilters reads field=value pairs in order. Literal true/false become exact
// boolean matches; other values go through ParseFilterValue.
func parseFilters(pairs []string) (*jsonapibridge.Filter, error) {
	filter := jsonapibridge.NewFilter()
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, errors.Errorf("invalid filter %q, want field=value", pair)
		}
		switch value {
		case "true":
			filter.Set(field, jsonapibridge.Exact(true))
		case "false":
			filter.Set(field, jsonapibridge.Exact(false))
		default:
			filter.Set(field, jsonapibridge.ParseFilterValue(value))
		}
	}
	return filter, nil
}

func parseData(data string) (map[string]any, error) {
	attrs := map[string]any{}
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return nil, errors.Wrap(err, "--data must be a JSON object")
	}
	return attrs, nil
}
