package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"model-version-registry/internal/adapters/primary/http/dto"
	"model-version-registry/internal/client"
)

func newDeployCmd(newClient func() *client.Client) *cobra.Command {
	req := &dto.DeployModelRequest{}

	cmd := &cobra.Command{
		Use:   "endpoint:deploy MODEL",
		Short: "Deploy a model version to a new endpoint",
		Long: `Deploy a model version to a new endpoint.

MODEL is a model id or resource name, optionally followed by @VERSION.

Examples:
  registryctl endpoint:deploy churn
  registryctl endpoint:deploy churn@candidate --display-name churn-canary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Model = args[0]
			resp, err := newClient().Deploy(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&req.Version, "version", "v", "", "version id or alias (default version when empty)")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "endpoint display name")
	return cmd
}

func newEndpointGetCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoint:get ENDPOINT_ID",
		Short: "Show an endpoint and the readiness of its deployed model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().GetEndpoint(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newPredictCmd(newClient func() *client.Client) *cobra.Command {
	var instancesJSON, instancesFile string

	cmd := &cobra.Command{
		Use:   "endpoint:predict ENDPOINT_ID",
		Short: "Send prediction instances to an endpoint",
		Long: `Send prediction instances to an endpoint.

Instances are a JSON array given inline or read from a file.

Examples:
  registryctl endpoint:predict 3f1c... --instances '[[1.0, 2.0], [3.0, 4.0]]'
  registryctl endpoint:predict 3f1c... --file instances.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(instancesJSON)
			if instancesFile != "" {
				b, err := os.ReadFile(instancesFile)
				if err != nil {
					return fmt.Errorf("read instances file: %w", err)
				}
				raw = b
			}

			var instances []interface{}
			if err := json.Unmarshal(raw, &instances); err != nil {
				return fmt.Errorf("instances must be a JSON array: %w", err)
			}

			resp, err := newClient().Predict(cmd.Context(), args[0], instances)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&instancesJSON, "instances", "", "JSON array of instances")
	cmd.Flags().StringVarP(&instancesFile, "file", "f", "", "file holding a JSON array of instances")
	cmd.MarkFlagsMutuallyExclusive("instances", "file")
	cmd.MarkFlagsOneRequired("instances", "file")
	return cmd
}
