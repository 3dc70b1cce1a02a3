package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrEmptyCommand = errors.New("web UI command is empty")

type IViewerClient interface {
	Run(ctx context.Context) error
}

// ViewerClient launches the external results viewer against an output folder
// and blocks until it exits.
type ViewerClient struct {
	Command          string
	OutputFolderPath string
	Stdout           io.Writer
	Stderr           io.Writer
	Logger           *logrus.Logger
}

func NewViewerClient(command string, outputFolderPath string, stdout io.Writer, stderr io.Writer, logger *logrus.Logger) *ViewerClient {
	return &ViewerClient{
		Command:          command,
		OutputFolderPath: outputFolderPath,
		Stdout:           stdout,
		Stderr:           stderr,
		Logger:           logger,
	}
}

func (viewerClient *ViewerClient) Args() ([]string, error) {
	args := strings.Fields(viewerClient.Command)
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return append(args, "--output-folder", viewerClient.OutputFolderPath), nil
}

func (viewerClient *ViewerClient) Run(ctx context.Context) error {
	args, err := viewerClient.Args()
	if err != nil {
		return err
	}

	viewerClient.Logger.Infof("Starting web UI: %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = viewerClient.Stdout
	cmd.Stderr = viewerClient.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			viewerClient.Logger.Info("Web UI stopped")
			return nil
		}
		return fmt.Errorf("error running web UI %q: %w", args[0], err)
	}
	return nil
}
