package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/cli"
	"github.com/whharris917/qms-cli/pkg/console"
	"github.com/whharris917/qms-cli/pkg/constants"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

// Build-time variable set by GoReleaser
var version = "dev"

var (
	userFlag string
	jsonFlag bool
)

var rootCmd = &cobra.Command{
	Use:     constants.CLIName,
	Short:   "Quality management system CLI for regulated document lifecycles",
	Version: version,
	Long: `qms manages SOP, CR, INV, TP, ER, VAR, and SDLC documents through a
controlled review/approval workflow, with every transition recorded to
an append-only audit log.

Common Tasks:
  qms init                          # bootstrap a new project
  qms create --type SOP --title ... # start a new document
  qms checkout SOP-001              # pull a document into your workspace
  qms route SOP-001 --review        # send it out for review
  qms approve SOP-001               # approve a routed document

For detailed help on any command, use:
  qms [command] --help`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// resolveUser returns the --user flag value, falling back to QMS_USER.
func resolveUser() string {
	if userFlag != "" {
		return userFlag
	}
	return os.Getenv("QMS_USER")
}

// newContext builds a *cli.Context for the current working directory,
// exiting the process on failure since every command needs one.
func newContext() *cli.Context {
	user := resolveUser()
	if user == "" {
		fail(qmserrors.New(qmserrors.UnknownUser, "no user specified").
			WithHint("pass --user or set QMS_USER"))
	}
	cwd, err := os.Getwd()
	if err != nil {
		fail(err)
	}
	c, err := cli.NewContext(cwd, user)
	if err != nil {
		fail(err)
	}
	return c
}

// fail prints err the way the rest of the CLI surface renders errors
// and exits with its mapped code.
func fail(err error) {
	fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
	os.Exit(qmserrors.ExitCode(err))
}

// emit renders a command's result either as JSON (--json) or as console
// output. Commands that only confirm an action (message set, data nil)
// print the confirmation; query commands (message empty, data the
// result) render the result itself via console.OutputStructOrJSON so
// `--json` and plain console output share one formatting entry point.
func emit(message string, data any) {
	if data != nil && message == "" {
		if err := console.OutputStructOrJSON(data, jsonFlag); err != nil {
			fail(err)
		}
		return
	}
	if jsonFlag && data != nil {
		enc, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			fail(err)
		}
		fmt.Println(string(enc))
		return
	}
	fmt.Println(console.FormatSuccessMessage(message))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "acting user (defaults to $QMS_USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "emit machine-readable JSON output")
	rootCmd.SetOut(os.Stderr)

	rootCmd.AddCommand(
		newInitCommand(),
		newCreateCommand(),
		newCheckoutCommand(),
		newCheckinCommand(),
		newRouteCommand(),
		newAssignCommand(),
		newReviewCommand(),
		newApproveCommand(),
		newRejectCommand(),
		newReleaseCommand(),
		newRevertCommand(),
		newCloseCommand(),
		newCancelCommand(),
		newFixCommand(),
		newNamespaceCommand(),
		newUserCommand(),
		newReadCommand(),
		newStatusCommand(),
		newHistoryCommand(),
		newCommentsCommand(),
		newInboxCommand(),
		newWorkspaceCommand(),
	)
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Bootstrap a new QMS project in the current directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cwd, err := os.Getwd()
			if err != nil {
				fail(err)
			}
			if err := cli.Init(cwd); err != nil {
				fail(err)
			}
			emit("project initialized", nil)
		},
	}
}

func newCreateCommand() *cobra.Command {
	var opt cli.CreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new document and its draft",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			res, err := cli.Create(c, opt)
			if err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("created %s", res.DocID), res)
		},
	}
	cmd.Flags().StringVar(&opt.DocType, "type", "", "document type (SOP, CR, INV, TP, ER, VAR, or a registered SDLC type)")
	cmd.Flags().StringVar(&opt.Title, "title", "", "document title")
	cmd.Flags().StringVar(&opt.ParentID, "parent", "", "owning document ID (required for TP, ER, VAR)")
	cmd.Flags().StringVar(&opt.TemplateName, "template", "", "template name (required when --type TEMPLATE)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newCheckoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <docID>",
		Short: "Check out a document into your workspace",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Checkout(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s checked out", args[0]), nil)
		},
	}
}

func newCheckinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <docID>",
		Short: "Check in your workspace copy of a document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Checkin(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s checked in", args[0]), nil)
		},
	}
}

func newRouteCommand() *cobra.Command {
	var opt cli.RouteOptions
	var assignees string
	cmd := &cobra.Command{
		Use:   "route <docID>",
		Short: "Route a checked-in document into review or approval",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if assignees != "" {
				opt.Assignees = strings.Split(assignees, ",")
			}
			c := newContext()
			if err := cli.Route(c, args[0], opt); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s routed", args[0]), nil)
		},
	}
	cmd.Flags().BoolVar(&opt.Review, "review", false, "route to review")
	cmd.Flags().BoolVar(&opt.Approval, "approval", false, "route to approval")
	cmd.Flags().StringVar(&assignees, "assignees", "", "comma-separated reviewer/approver usernames")
	cmd.Flags().BoolVar(&opt.Retire, "retire", false, "route this approval as a retirement")
	return cmd
}

func newAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <docID> <user>...",
		Short: "Assign additional users to a document's active review or approval",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Assign(c, args[0], args[1:]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s assigned to %s", strings.Join(args[1:], ", "), args[0]), nil)
		},
	}
}

func newReviewCommand() *cobra.Command {
	var outcome, comment string
	cmd := &cobra.Command{
		Use:   "review <docID>",
		Short: "Submit your review outcome for an assigned document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			o := strings.ToUpper(strings.ReplaceAll(outcome, "-", "_"))
			if err := cli.Review(c, args[0], o, comment); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("review recorded for %s", args[0]), nil)
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "recommend or updates-required")
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func newApproveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <docID>",
		Short: "Submit your approval for an assigned document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Approve(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("approval recorded for %s", args[0]), nil)
		},
	}
}

func newRejectCommand() *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "reject <docID>",
		Short: "Reject a document routed for your approval",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Reject(c, args[0], comment); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s rejected", args[0]), nil)
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "reason for rejection")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func newReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release <docID>",
		Short: "Release a pre-approved executable document into execution",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Release(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s released", args[0]), nil)
		},
	}
}

func newRevertCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "revert <docID>",
		Short: "Return a post-reviewed executable document to execution",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Revert(c, args[0], reason); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s reverted to execution", args[0]), nil)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for reverting")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newCloseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close <docID>",
		Short: "Close an executable document's execution phase",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Close(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s closed", args[0]), nil)
		},
	}
}

func newCancelCommand() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "cancel <docID>",
		Short: "Permanently delete a never-effective document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Cancel(c, args[0], confirm); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s cancelled", args[0]), nil)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm permanent deletion")
	return cmd
}

func newFixCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fix <docID>",
		Short: "Administrator repair of on-disk drift in an effective or closed document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.Fix(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("%s repaired", args[0]), nil)
		},
	}
}

func newNamespaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespace",
		Short: "List or register SDLC namespaces",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered SDLC namespaces",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			emit("", cli.NamespaceList(c))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register a new SDLC namespace",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			if err := cli.NamespaceAdd(c, args[0]); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("namespace %s registered", args[0]), nil)
		},
	})
	return cmd
}

func newUserCommand() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users and their groups",
	}
	add := &cobra.Command{
		Use:   "add <user>",
		Short: "Register a new user with a group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			g, err := identity.ParseGroup(group)
			if err != nil {
				fail(err)
			}
			c := newContext()
			if err := cli.UserAdd(c, args[0], g); err != nil {
				fail(err)
			}
			emit(fmt.Sprintf("user %s registered as %s", args[0], g), nil)
		},
	}
	add.Flags().StringVar(&group, "group", "", "administrator, initiator, quality, or reviewer")
	_ = add.MarkFlagRequired("group")
	cmd.AddCommand(add)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users and their groups",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			users, err := cli.UserList(c)
			if err != nil {
				fail(err)
			}
			emit("", users)
		},
	})
	return cmd
}

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <docID>",
		Short: "Print a document's current draft or effective content",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			body, err := cli.Read(c, args[0])
			if err != nil {
				fail(err)
			}
			fmt.Println(body)
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <docID>",
		Short: "Show a document's current metadata",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			m, err := cli.Status(c, args[0])
			if err != nil {
				fail(err)
			}
			emit("", m)
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <docID>",
		Short: "Show a document's full audit history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			events, err := cli.History(c, args[0])
			if err != nil {
				fail(err)
			}
			if jsonFlag {
				emit("", events)
				return
			}
			fmt.Print(audit.FormatHistory(events))
		},
	}
}

func newCommentsCommand() *cobra.Command {
	var version string
	var currentVersion bool
	cmd := &cobra.Command{
		Use:   "comments <docID>",
		Short: "Show a document's review and rejection comments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			var events []audit.Event
			var err error
			if currentVersion {
				events, err = cli.LatestVersionComments(c, args[0])
			} else {
				events, err = cli.Comments(c, args[0], version)
			}
			if err != nil {
				fail(err)
			}
			if jsonFlag {
				emit("", events)
				return
			}
			fmt.Print(audit.FormatComments(events))
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "scope to one version")
	cmd.Flags().BoolVar(&currentVersion, "current-version", false, "scope to the document's current version (overrides --version)")
	return cmd
}

func newInboxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List your own pending tasks",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			entries, err := cli.Inbox(c)
			if err != nil {
				fail(err)
			}
			emit("", entries)
		},
	}
}

func newWorkspaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace",
		Short: "List documents checked out into your own workspace",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c := newContext()
			entries, err := cli.Workspace(c)
			if err != nil {
				fail(err)
			}
			emit("", entries)
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
