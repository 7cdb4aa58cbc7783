package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vietlingo/curriculum"
)

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Validate and print the built-in curriculum",
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := curriculum.Default()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cur)
		}

		fmt.Fprintf(out, "%s (%s): %d topics\n", cur.Title, cur.TitleEn, len(cur.Topics))
		for _, topic := range cur.Topics {
			titles := make([]string, 0, len(topic.Lessons))
			for _, lesson := range topic.Lessons {
				title := lesson.Title
				if lesson.Review {
					title += " *"
				}
				titles = append(titles, title)
			}
			fmt.Fprintf(out, "%2d. %s / %s: %s\n", topic.ID, topic.Name, topic.NameEn, strings.Join(titles, ", "))
		}
		return nil
	},
}

func init() {
	curriculumCmd.Flags().Bool("json", false, "Print the curriculum as JSON")
}
