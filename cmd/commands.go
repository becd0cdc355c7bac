package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

var lsCmd = &cobra.Command{
	Use:   "ls <irods-path>",
	Short: "List a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		entries, err := filesystem.List(args[0])
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.Type == types.ObjectTypeCollection {
				fmt.Printf("  C- %s\n", entry.Path)
			} else {
				fmt.Printf("  %s (%d bytes)\n", entry.Name, entry.Size)
			}
		}

		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <irods-path>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recurse, _ := cmd.Flags().GetBool("parents") //nolint:errcheck

		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		created, err := filesystem.MakeDir(args[0], recurse)
		if err != nil {
			return err
		}

		if !created {
			fmt.Fprintf(os.Stderr, "collection %s already exists\n", args[0])
		}

		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <irods-path>",
	Short: "Remove a data object or collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")         //nolint:errcheck
		recurse, _ := cmd.Flags().GetBool("recursive")   //nolint:errcheck

		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		entry, err := filesystem.Stat(args[0])
		if err != nil {
			return err
		}

		if entry.Type == types.ObjectTypeCollection {
			return filesystem.RemoveDir(args[0], recurse, force)
		}

		return filesystem.RemoveFile(args[0], force)
	},
}

var putCmd = &cobra.Command{
	Use:   "put <local-path> <irods-path>",
	Short: "Upload a local file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		return filesystem.Put(args[0], args[1], printProgress, nil)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <irods-path> <local-path>",
	Short: "Download a data object or collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		return filesystem.Get(args[0], args[1], printProgress, nil)
	},
}

var replCmd = &cobra.Command{
	Use:   "repl <irods-path> <resource>",
	Short: "Replicate a data object to a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		return filesystem.Replicate(args[0], args[1], printProgress, nil)
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <src-irods-path> <dest-irods-path>",
	Short: "Copy within iRODS",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force") //nolint:errcheck

		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		return filesystem.Copy(args[0], "", args[1], force, printProgress, nil)
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <src-irods-path> <dest-irods-path>",
	Short: "Move or rename within iRODS",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesystem, err := newFileSystem()
		if err != nil {
			return err
		}
		defer filesystem.Release()

		return filesystem.Move(args[0], args[1])
	},
}

func init() {
	mkdirCmd.Flags().BoolP("parents", "p", false, "create missing parent collections")
	rmCmd.Flags().BoolP("force", "f", false, "skip the trash")
	rmCmd.Flags().BoolP("recursive", "r", false, "remove collections recursively")
	cpCmd.Flags().BoolP("force", "f", false, "overwrite the target")
}

// printProgress renders transfer status events on stderr
func printProgress(status *types.TransferStatus) {
	switch status.State {
	case types.TransferStateOverallInitiation:
		fmt.Fprintf(os.Stderr, "%s: %s -> %s (%d files, %d bytes)\n",
			status.Type, status.SourcePath, status.TargetPath, status.FilesTotal, status.BytesTotal)
	case types.TransferStateInProgress:
		fmt.Fprintf(os.Stderr, "\r%d/%d bytes, %d/%d files",
			status.BytesTransferred, status.BytesTotal, status.FilesTransferred, status.FilesTotal)
	case types.TransferStateSuccess:
		fmt.Fprintf(os.Stderr, "\n%s done\n", status.SourcePath)
	case types.TransferStateFailure:
		fmt.Fprintf(os.Stderr, "\n%s failed: %v\n", status.SourcePath, status.Error)
	case types.TransferStateRestarting:
		fmt.Fprintf(os.Stderr, "\n%s restarting after: %v\n", status.SourcePath, status.Error)
	case types.TransferStateOverallCompletion:
		fmt.Fprintf(os.Stderr, "completed %d files, %d bytes\n",
			status.FilesTransferred, status.BytesTransferred)
	case types.TransferStateCancelled:
		fmt.Fprintln(os.Stderr, "cancelled")
	}
}
