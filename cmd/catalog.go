package cmd

import (
	"fmt"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:       "catalog [styles|palettes|quiz]",
	Short:     "同梱のスタイル・パレット・クイズを JSON で表示します",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"styles", "palettes", "quiz"},
	RunE:      catalogCommand,
}

func catalogCommand(cmd *cobra.Command, args []string) error {
	kind := ""
	if len(args) > 0 {
		kind = args[0]
	}

	var v any
	switch kind {
	case "":
		v = map[string]any{
			"styles":   domain.ArtStyles(),
			"palettes": domain.ColorPalettes(),
			"quiz":     domain.QuizQuestions(),
		}
	case "styles":
		v = domain.ArtStyles()
	case "palettes":
		v = domain.ColorPalettes()
	case "quiz":
		v = domain.QuizQuestions()
	default:
		return fmt.Errorf("不明なカタログです: %s", kind)
	}
	return writeJSON(cmd.OutOrStdout(), v)
}
