// Package cli implements registryctl, a command line client for the model
// version registry server.
package cli

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"model-version-registry/internal/client"
)

var version = "dev"

// SetVersion sets the version string reported by --version.
func SetVersion(v string) {
	version = v
}

// Execute runs registryctl with os.Args.
func Execute() error {
	return NewRootCmd(viper.New()).Execute()
}

// NewRootCmd builds the command tree. Settings resolve from flags first and
// REGISTRY_* environment variables second.
func NewRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:          "registryctl",
		Short:        "Command line client for the model version registry",
		Long:         `Upload model versions, resolve versions by id or alias, and deploy them for online prediction.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := log.ParseLevel(v.GetString("log_level"))
			if err != nil {
				level = log.WarnLevel
			}
			log.SetLevel(level)
		},
	}

	root.PersistentFlags().String("server", "http://localhost:8080", "registry server base URL")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	v.SetEnvPrefix("REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlag("url", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	newClient := func() *client.Client {
		return client.NewClient(v.GetString("url"), v.GetDuration("timeout"))
	}

	root.AddCommand(
		newUploadCmd(newClient),
		newVersionGetCmd(newClient),
		newVersionListCmd(newClient),
		newAliasCmd(newClient, "add"),
		newAliasCmd(newClient, "remove"),
		newDeployCmd(newClient),
		newEndpointGetCmd(newClient),
		newPredictCmd(newClient),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
