package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnipath-client/pkg/omnipath"
	"github.com/omnipath-client/pkg/query"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources <endpoint>",
	Short: "List the resources serving an endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var names []string
		categories, _ := cmd.Flags().GetStringSlice("generic-categories")
		if len(categories) > 0 && strings.EqualFold(args[0], query.Intercell) {
			names, err = s.client.Intercell().ResourcesIn(cmd.Context(), categories...)
		} else {
			var req omnipath.Getter
			if req, err = selectRequest(cmd, s.client, args[0]); err != nil {
				return err
			}
			names, err = req.Resources(cmd.Context())
		}
		if err != nil {
			return err
		}

		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var paramsCmd = &cobra.Command{
	Use:   "params <endpoint>",
	Short: "List the parameters an endpoint accepts and their valid values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		req, err := selectRequest(cmd, s.client, args[0])
		if err != nil {
			return err
		}
		params, err := req.Params(cmd.Context())
		if err != nil {
			return err
		}

		names := make([]string, 0, len(params))
		for n := range params {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			valid := "<any>"
			if params[n] != nil {
				valid = strings.Join(params[n].Sorted(), ", ")
			}
			fmt.Fprintf(os.Stdout, "%s\t%s\n", n, valid)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client and server versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("omnipath %s\n", version)

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Printf("server %s\n", s.client.ServerVersion(cmd.Context()))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{resourcesCmd, paramsCmd} {
		c.Flags().StringSlice("datasets", nil, "interaction datasets to include")
		c.Flags().StringSlice("exclude", nil, "interaction datasets to exclude")
		c.Flags().String("preset", "", "interaction dataset preset")
	}
	resourcesCmd.Flags().StringSlice("generic-categories", nil, "intercell generic categories to filter resources by")

	rootCmd.AddCommand(resourcesCmd, paramsCmd, versionCmd)
}
