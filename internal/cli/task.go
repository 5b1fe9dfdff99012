package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var (
	taskTitle    string
	taskTopic    string
	taskSubtopic string
	taskColor    string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			t, err := v.engine.CreateTask(v.ctx, store.TaskAttrs{
				Title:    args[0],
				Topic:    taskTopic,
				Subtopic: taskSubtopic,
				Color:    taskColor,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %q (%s)\n", t.Title, t.ID)
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			tasks, err := v.engine.ListTasks(v.ctx)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks yet. Create one with: tempo task create <title>")
				return nil
			}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{t.ID, t.Title, t.Topic, t.Subtopic})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "TITLE", "TOPIC", "SUBTOPIC"}, rows))
			return nil
		})
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task>",
	Short: "Change a task's title, topic, subtopic or color; logged entries follow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			t, err := resolveTask(v, args[0])
			if err != nil {
				return err
			}
			attrs := t.Attrs()
			flags := cmd.Flags()
			if flags.Changed("title") {
				attrs.Title = taskTitle
			}
			if flags.Changed("topic") {
				attrs.Topic = taskTopic
			}
			if flags.Changed("subtopic") {
				attrs.Subtopic = taskSubtopic
			}
			if flags.Changed("color") {
				attrs.Color = taskColor
			}
			if err := v.engine.UpdateTask(v.ctx, t.ID, attrs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %q\n", attrs.Title)
			return nil
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task>",
	Short: "Delete a task; its logged time is kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			t, err := resolveTask(v, args[0])
			if err != nil {
				return err
			}
			if err := v.engine.DeleteTask(v.ctx, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %q\n", t.Title)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskCreateCmd, taskListCmd, taskUpdateCmd, taskDeleteCmd)

	for _, c := range []*cobra.Command{taskCreateCmd, taskUpdateCmd} {
		c.Flags().StringVar(&taskTopic, "topic", "", "Topic the task is grouped under")
		c.Flags().StringVar(&taskSubtopic, "subtopic", "", "Optional subtopic")
		c.Flags().StringVar(&taskColor, "color", "", "Display color, e.g. #2EC4B6")
	}
	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
}
