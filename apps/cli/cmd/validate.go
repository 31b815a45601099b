package cmd

import (
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Encode a descriptor without sending it",
	Long: `Parse and encode a descriptor, then print the URL, headers and body
summary that send would transmit. Nothing goes over the network.

Examples:
  servicecall validate user.yaml
  servicecall validate upload.yaml --var token=abc -o json`,
	Args: cobra.ExactArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("SERVICECALL_ENV_FILE", ""), "Path to .env file for variable interpolation (env: SERVICECALL_ENV_FILE)")
	validateCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (KEY=value, repeatable)")
	validateCmd.Flags().StringArrayVar(&paramFlags, "param", nil, "Set a request parameter (key=<json>, repeatable, replaces the descriptor's)")
	validateCmd.Flags().BoolVar(&streamFlag, "stream", getEnvBool("SERVICECALL_STREAM", false), "Encode multipart bodies as streams (env: SERVICECALL_STREAM)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(sendOverrides())
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg, varFlags, nil)
	if err != nil {
		return err
	}
	desc, err := loadDescriptor(args[0], resolver)
	if err != nil {
		return err
	}
	if _, err := validatorFor(desc, cfg, nil); err != nil {
		return err
	}

	params, err := parseParams(paramFlags)
	if err != nil {
		return err
	}

	encoded, err := http.Encode(requestFor(desc, cfg, 0, params), cfg.EncodeOptions()...)
	if err != nil {
		return withExitCode(ExitDescriptorError, err)
	}
	defer encoded.Close()

	formatter.FormatEncoded(desc.Name, encoded)
	return nil
}
