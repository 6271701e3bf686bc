package main

import (
	"github.com/spf13/cobra"

	"tasker/internal/commands"
)

var addCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a new task",
	Args:  exactArgs(1, "description"),
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	Args:  exactArgs(0),
	RunE:  runList,
}

var listJSON bool

var completeCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task as completed",
	Args:  exactArgs(1, "id"),
	RunE:  runComplete,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  exactArgs(1, "id"),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, completeCmd, deleteCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
}

func runAdd(cmd *cobra.Command, args []string) error {
	description, err := commands.ParseDescription(args[0])
	if err != nil {
		return err
	}

	return withHandlers(cmd, func(h *commands.Handlers) error {
		return h.Add(cmd.Context(), description)
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withHandlers(cmd, func(h *commands.Handlers) error {
		return h.List(cmd.Context(), listJSON)
	})
}

func runComplete(cmd *cobra.Command, args []string) error {
	id, err := commands.ParseID(args[0])
	if err != nil {
		return err
	}

	return withHandlers(cmd, func(h *commands.Handlers) error {
		return h.Complete(cmd.Context(), id)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := commands.ParseID(args[0])
	if err != nil {
		return err
	}

	return withHandlers(cmd, func(h *commands.Handlers) error {
		return h.Delete(cmd.Context(), id)
	})
}
