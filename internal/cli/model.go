package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"model-version-registry/internal/adapters/primary/http/dto"
	"model-version-registry/internal/client"
)

func newUploadCmd(newClient func() *client.Client) *cobra.Command {
	req := &dto.UploadModelRequest{}
	var isDefault string

	cmd := &cobra.Command{
		Use:   "model:upload",
		Short: "Register an artifact as a new model or a new version",
		Long: `Register a model artifact.

Without --parent-model a new model is created and the artifact becomes its
version 1. With --parent-model the artifact becomes the next version of that
model and the model's resource name is unchanged.

Examples:
  # Create a model with two aliases
  registryctl model:upload --model-id churn --artifact-uri gs://bucket/churn/1 \
    --alias candidate --alias nightly

  # Add a non-default version to the existing model
  registryctl model:upload --parent-model projects/p/locations/l/models/churn \
    --artifact-uri gs://bucket/churn/2 --default=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("default") {
				b, err := strconv.ParseBool(isDefault)
				if err != nil {
					return err
				}
				req.IsDefaultVersion = &b
			}

			resp, err := newClient().Upload(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.ModelID, "model-id", "", "id of the new model (generated when empty)")
	cmd.Flags().StringVar(&req.ParentModel, "parent-model", "", "model id or resource name to add a version to")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "display name of a new model")
	cmd.Flags().StringVar(&req.ArtifactURI, "artifact-uri", "", "location of the model artifact")
	cmd.Flags().StringVar(&req.VersionDescription, "description", "", "version description")
	cmd.Flags().StringArrayVarP(&req.VersionAliases, "alias", "a", nil, "version alias (repeatable)")
	cmd.Flags().StringVar(&isDefault, "default", "true", "make the new version the default")
	cmd.Flags().StringVar(&req.ModelFramework, "framework", "", "model framework, e.g. sklearn")
	cmd.Flags().StringToStringVar(&req.Labels, "label", nil, "label key=value (repeatable)")
	_ = cmd.MarkFlagRequired("artifact-uri")
	return cmd
}

func newVersionGetCmd(newClient func() *client.Client) *cobra.Command {
	var selector string

	cmd := &cobra.Command{
		Use:   "version:get MODEL",
		Short: "Show one version of a model",
		Long: `Show one version of a model.

MODEL is a model id or resource name, optionally followed by @VERSION where
VERSION is a version id or alias. Without a version the default version is
shown.

Examples:
  registryctl version:get churn
  registryctl version:get projects/p/locations/l/models/churn@2
  registryctl version:get churn --version candidate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().GetVersion(cmd.Context(), args[0], selector)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&selector, "version", "v", "", "version id or alias")
	return cmd
}

func newVersionListCmd(newClient func() *client.Client) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "version:list MODEL_ID",
		Short: "List the versions of a model in version order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().ListVersions(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func newAliasCmd(newClient func() *client.Client, action string) *cobra.Command {
	short := "Detach aliases from a model version"
	if action == "add" {
		short = "Attach aliases to a model version; adding \"default\" makes it the default version"
	}

	return &cobra.Command{
		Use:   "alias:" + action + " MODEL_ID VERSION ALIAS...",
		Short: short,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			var (
				resp *dto.ModelVersionResponse
				err  error
			)
			if action == "add" {
				resp, err = c.AddAliases(cmd.Context(), args[0], args[1], args[2:])
			} else {
				resp, err = c.RemoveAliases(cmd.Context(), args[0], args[1], args[2:])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}
