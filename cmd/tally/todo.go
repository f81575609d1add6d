package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/ui"
)

var todoCmd = &cobra.Command{
	Use:     "todo",
	GroupID: "books",
	Short:   "Manage todos",
}

var todoAddCmd = &cobra.Command{
	Use:   "add [client] [category] [task]",
	Short: "Add a todo",
	Long: `Add a todo for a client.

Run with no arguments in a terminal to fill in the fields
interactively; otherwise pass client, category, and task directly.`,
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}

		var todo schema.Todo
		if len(args) == 0 {
			if !ui.Interactive() {
				return fmt.Errorf("usage: tally todo add <client> <category> <task>")
			}
			todo, err = promptTodo(led)
			if err != nil {
				return err
			}
		} else if len(args) == 3 {
			todo = schema.Todo{Client: args[0], Category: args[1], Task: args[2]}
			todo.Priority, _ = cmd.Flags().GetInt("priority")
			todo.Notes, _ = cmd.Flags().GetString("notes")
		} else {
			return fmt.Errorf("usage: tally todo add <client> <category> <task>")
		}

		if err := led.AddTodo(cmd.Context(), todo); err != nil {
			return err
		}
		fmt.Printf("Added todo for %s: %s\n", todo.Client, todo.Task)
		return nil
	},
}

// promptTodo collects todo fields interactively. The category list
// depends on the chosen client, so the client is picked first.
func promptTodo(led *ledger.Ledger) (schema.Todo, error) {
	clients, err := led.ListClients()
	if err != nil {
		return schema.Todo{}, err
	}
	if len(clients) == 0 {
		return schema.Todo{}, ledger.ErrNoClients
	}

	clientOpts := make([]huh.Option[string], 0, len(clients))
	for _, c := range clients {
		clientOpts = append(clientOpts, huh.NewOption(c.Name, c.Name))
	}

	var todo schema.Todo
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Client").
			Options(clientOpts...).
			Value(&todo.Client),
	)).Run(); err != nil {
		return schema.Todo{}, err
	}

	cats, err := led.ListCategories(todo.Client)
	if err != nil {
		return schema.Todo{}, err
	}
	if len(cats) == 0 {
		return schema.Todo{}, fmt.Errorf("no categories for %s; add one with 'tally category add'", todo.Client)
	}
	catOpts := make([]huh.Option[string], 0, len(cats))
	for _, c := range cats {
		catOpts = append(catOpts, huh.NewOption(c.Category, c.Category))
	}

	todo.Priority = 3
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Category").
			Options(catOpts...).
			Value(&todo.Category),
		huh.NewInput().
			Title("Task").
			Value(&todo.Task),
		huh.NewSelect[int]().
			Title("Priority").
			Options(
				huh.NewOption("1 - Critical", 1),
				huh.NewOption("2 - High", 2),
				huh.NewOption("3 - Medium", 3),
				huh.NewOption("4 - Low", 4),
				huh.NewOption("5 - Someday", 5),
			).
			Value(&todo.Priority),
		huh.NewInput().
			Title("Notes").
			Value(&todo.Notes),
	)).Run(); err != nil {
		return schema.Todo{}, err
	}
	return todo, nil
}

var todoListCmd = &cobra.Command{
	Use:   "list [client]",
	Short: "List active todos, optionally for one client",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		client := ""
		if len(args) == 1 {
			client = args[0]
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}

		var todos []ledger.TodoRow
		if all {
			todos, err = led.ListTodos()
		} else {
			todos, err = led.ActiveTodos(client)
		}
		if err != nil {
			return err
		}
		if len(todos) == 0 {
			fmt.Println("Nothing to do.")
			return nil
		}

		rows := make([][]string, 0, len(todos))
		for _, tr := range todos {
			t := tr.Todo
			state := ""
			if !t.Active() {
				state = "done " + t.DateCompleted
			}
			rows = append(rows, []string{
				strconv.Itoa(tr.Index),
				ui.PriorityStyle(t.Priority).Render("P" + strconv.Itoa(t.Priority)),
				t.Client, t.Category, t.Task, state,
			})
		}
		fmt.Print(ui.Table([]string{"#", "PRI", "CLIENT", "CATEGORY", "TASK", ""}, rows))
		return nil
	},
}

var todoDoneCmd = &cobra.Command{
	Use:   "done <number>",
	Short: "Mark a todo completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := todoIndex(args[0])
		if err != nil {
			return err
		}
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.CompleteTodo(cmd.Context(), idx); err != nil {
			if errors.Is(err, ledger.ErrAlreadyCompleted) {
				ui.Errorf("todo %d is already completed", idx)
				os.Exit(1)
			}
			return err
		}
		fmt.Printf("Completed todo %d\n", idx)
		return nil
	},
}

var todoRmCmd = &cobra.Command{
	Use:   "rm <number>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := todoIndex(args[0])
		if err != nil {
			return err
		}
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.DeleteTodo(cmd.Context(), idx); err != nil {
			return err
		}
		fmt.Printf("Deleted todo %d\n", idx)
		return nil
	},
}

var todoEditCmd = &cobra.Command{
	Use:   "edit <number>",
	Short: "Change a todo's priority or notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := todoIndex(args[0])
		if err != nil {
			return err
		}
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}

		// Fields left off the command line keep their current value.
		todos, err := led.ListTodos()
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(todos) {
			return fmt.Errorf("edit todo %d: %w", idx, ledger.ErrRowOutOfRange)
		}
		priority := todos[idx].Todo.Priority
		notes := todos[idx].Todo.Notes
		if cmd.Flags().Changed("priority") {
			priority, _ = cmd.Flags().GetInt("priority")
		}
		if cmd.Flags().Changed("notes") {
			notes, _ = cmd.Flags().GetString("notes")
		}

		if err := led.EditTodo(cmd.Context(), idx, priority, notes); err != nil {
			return err
		}
		fmt.Printf("Updated todo %d\n", idx)
		return nil
	},
}

func todoIndex(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("todo number must be an integer (got %q)", arg)
	}
	return idx, nil
}

func init() {
	todoAddCmd.Flags().Int("priority", 3, "priority 1 (critical) to 5 (someday)")
	todoAddCmd.Flags().String("notes", "", "free-form notes")
	todoListCmd.Flags().Bool("all", false, "include completed todos")
	todoEditCmd.Flags().Int("priority", 3, "priority 1 (critical) to 5 (someday)")
	todoEditCmd.Flags().String("notes", "", "free-form notes")

	todoCmd.AddCommand(todoAddCmd)
	todoCmd.AddCommand(todoListCmd)
	todoCmd.AddCommand(todoDoneCmd)
	todoCmd.AddCommand(todoRmCmd)
	todoCmd.AddCommand(todoEditCmd)
	rootCmd.AddCommand(todoCmd)
}
