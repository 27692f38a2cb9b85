package cmd

import (
	"github.com/spf13/cobra"
)

var jobWait bool

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show the status of an async job",
	Long: `Show the status of an async job.

The ID may be a unique prefix of the full job ID. With --wait the job is
polled until it reaches a terminal state or the poll schedule runs out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := newClient()
		if err != nil {
			return err
		}

		if jobWait {
			return followJob(cmd.Context(), c, args[0], cfg.Client.JobPollSchedule)
		}

		j, err := c.JobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderJob(j)
	},
}

func init() {
	jobCmd.Flags().BoolVar(&jobWait, "wait", false, "poll until the job finishes")
	rootCmd.AddCommand(jobCmd)
}
