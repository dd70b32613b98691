package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dividr/rendernode/internal/engine"
	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/supervisor"
)

// CreateCompileCmd creates the compile command.
func CreateCompileCmd() *cobra.Command {
	var outputDir string
	var argvOnly bool

	cmd := &cobra.Command{
		Use:   "compile [job-file]",
		Short: "Compile an edit job without running it",
		Long: `Resolves the edit job described by the given JSON file into the full ` +
			`FFmpeg command line and prints it without spawning anything.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			initCommandLogging(false)
			logger := logging.GetLogger("compile")

			j, err := loadJobFile(args[0])
			if err != nil {
				logger.Error("Failed to load job file", "error", err)
				os.Exit(1)
			}

			eng := engine.New(outputDir, supervisor.New(logger), events.New(), logger)
			command, err := eng.Compile(j)
			if err != nil {
				logger.Error("Failed to compile job", "error", err)
				os.Exit(1)
			}

			if argvOnly {
				for _, arg := range command {
					fmt.Println(arg)
				}
				return
			}
			fmt.Println(strings.Join(command, " "))
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for relative output paths")
	cmd.Flags().BoolVar(&argvOnly, "argv", false, "Print one argument per line instead of a joined string")

	return cmd
}
