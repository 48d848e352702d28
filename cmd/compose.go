package cmd

import (
	"fmt"

	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/spf13/cobra"
)

var composeOpts struct {
	sessionFile string
	display     bool
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "セッション JSON からプロンプトを合成して表示します",
	RunE:  composeCommand,
}

func init() {
	composeCmd.Flags().StringVarP(&composeOpts.sessionFile, "session", "s", "-", "セッション JSON（ローカル, gs://..., '-' で標準入力）")
	composeCmd.Flags().BoolVar(&composeOpts.display, "display", false, "ネガティブを連結した1行の形式で出力します")
}

func composeCommand(cmd *cobra.Command, args []string) error {
	session, err := loadSession(cmd.Context(), composeOpts.sessionFile)
	if err != nil {
		return err
	}

	prompt := composer.Compose(session)
	if composeOpts.display {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), prompt.Display())
		return err
	}
	return writeJSON(cmd.OutOrStdout(), prompt)
}
