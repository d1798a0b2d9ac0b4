package clarifyverify

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temirov/clarify-verify/internal/config"
)

func loadRootConfiguration(configurationPath string) (config.Root, config.RootConfigurationSource, error) {
	loader, err := config.NewDefaultRootConfigurationLoader()
	if err != nil {
		return config.Root{}, config.RootConfigurationSource{}, fmt.Errorf(configurationLoaderInitializationErrorFormat, err)
	}
	source, err := loader.Load(configurationPath)
	if err != nil {
		return config.Root{}, config.RootConfigurationSource{}, fmt.Errorf(configurationSourceResolutionErrorFormat, err)
	}
	root, err := config.LoadRoot(source)
	if err != nil {
		return config.Root{}, source, fmt.Errorf(rootConfigurationLoadErrorFormat, source.Reference, err)
	}
	return root, source, nil
}

func newConfigCommand() *cobra.Command {
	var configurationPath string
	command := &cobra.Command{
		Use:   configCommandUse,
		Short: configCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, source, err := loadRootConfiguration(configurationPath)
			if err != nil {
				return err
			}
			rendered, err := yaml.Marshal(root)
			if err != nil {
				return fmt.Errorf("render configuration: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source.Reference, rendered)
			return err
		},
	}
	command.Flags().StringVar(&configurationPath, configFlagName, "", configFlagUsage)
	return command
}
