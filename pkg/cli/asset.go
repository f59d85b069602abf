package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/urfave/cli/v3"
)

// Multipart upload sizing: parts stay within the service's accepted range
// and the part count never exceeds the service limit.
const (
	minUploadPartSize = 5 << 20
	maxUploadPartSize = 95 << 20
	maxUploadParts    = 10000
)

func assetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "Browse, upload and download assets",
		Commands: []*cli.Command{
			assetsListCommand(),
			assetsGetCommand(),
			assetsDownloadCommand(),
			assetsUploadCommand(),
		},
	}
}

func assetsListCommand() *cli.Command {
	var (
		cfg       config
		projectID string
		query     string
		status    string
		limit     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"p"},
			Usage:       "Project to list assets from",
			Sources:     cli.EnvVars("RECALL_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Name filter",
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "status",
			Usage:       "Filter by status (ready, uploading, ...)",
			Destination: &status,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of assets to list",
			Value:       50,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List assets",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			assets, err := knowledge.ListAssets(ctx, &adapter.ListAssetsRequest{
				ProjectID: projectID,
				Query:     query,
				Status:    status,
				Limit:     int(limit),
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, e := range assets {
				a := e.Asset
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.ID, a.Status, a.ContentType, a.ByteSize, a.OriginalName)
			}
			return nil
		},
	}
}

func assetsGetCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "get",
		Usage:     "Show asset metadata",
		ArgsUsage: "<asset-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			id := c.Args().First()
			if id == "" {
				return goerr.New("asset id is required")
			}

			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}
			a, err := knowledge.GetAsset(ctx, id)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "ID:           %s\n", a.ID)
			fmt.Fprintf(w, "Project:      %s\n", a.ProjectID)
			fmt.Fprintf(w, "Status:       %s\n", a.Status)
			fmt.Fprintf(w, "Content-Type: %s\n", a.ContentType)
			fmt.Fprintf(w, "Size:         %d\n", a.ByteSize)
			if a.OriginalName != "" {
				fmt.Fprintf(w, "Name:         %s\n", a.OriginalName)
			}
			return nil
		},
	}
}

func assetsDownloadCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file (default: the asset's original name)",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "download",
		Usage:     "Download an asset's bytes",
		ArgsUsage: "<asset-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			id := c.Args().First()
			if id == "" {
				return goerr.New("asset id is required")
			}

			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			if output == "" {
				meta, err := knowledge.GetAsset(ctx, id)
				if err != nil {
					return err
				}
				output = meta.OriginalName
				if output == "" {
					output = id
				}
			}

			f, err := os.Create(output)
			if err != nil {
				return goerr.Wrap(err, "failed to create output file", goerr.V("path", output))
			}
			defer f.Close()

			sp := newSpinner(fmt.Sprintf(" downloading %s", id))
			sp.Start()
			err = knowledge.DownloadAsset(ctx, id, f)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to download asset", goerr.V("id", id))
			}

			fmt.Fprintln(c.Root().Writer, output)
			return nil
		},
	}
}

func assetsUploadCommand() *cli.Command {
	var (
		cfg       config
		projectID string
		memoryID  string
		relation  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"p"},
			Usage:       "Project to upload into",
			Required:    true,
			Sources:     cli.EnvVars("RECALL_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "memory-id",
			Usage:       "Memory to attach the asset to",
			Destination: &memoryID,
		},
		&cli.StringFlag{
			Name:        "relation",
			Usage:       "Relation of the attachment",
			Destination: &relation,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload a file as an asset (multipart)",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			path := c.Args().First()
			if path == "" {
				return goerr.New("file path is required")
			}

			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			id, err := uploadAsset(ctx, knowledge, path, projectID, memoryID, relation)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, id)
			return nil
		},
	}
}

func uploadAsset(ctx context.Context, knowledge adapter.Knowledge, path, projectID, memoryID, relation string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	created, err := knowledge.CreateAssetUpload(ctx, &adapter.CreateAssetUploadRequest{
		ProjectID:    projectID,
		OriginalName: filepath.Base(path),
		ContentType:  contentType,
		ByteSize:     info.Size(),
		PartSize:     pickPartSize(info.Size()),
		MemoryID:     memoryID,
		Relation:     relation,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to start upload")
	}

	// the service may settle on a different part size than requested
	partSize := int64(created.UploadPartSize)
	if partSize <= 0 {
		partSize = pickPartSize(info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close()

	sp := newSpinner(fmt.Sprintf(" uploading %s", filepath.Base(path)))
	sp.Start()
	defer sp.Stop()

	buf := make([]byte, partSize)
	for part := 1; ; part++ {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return "", goerr.Wrap(err, "failed to read file part", goerr.V("part", part))
		}
		if uploadErr := knowledge.UploadAssetPart(ctx, created.ID, part, buf[:n]); uploadErr != nil {
			return "", goerr.Wrap(uploadErr, "failed to upload part", goerr.V("part", part))
		}
		if err == io.ErrUnexpectedEOF {
			break
		}
	}

	if _, err := knowledge.CompleteAssetUpload(ctx, created.ID); err != nil {
		return "", goerr.Wrap(err, "failed to complete upload")
	}
	return created.ID, nil
}

// pickPartSize chooses a part size that keeps the part count within the
// service limit while staying inside the accepted per-part range.
func pickPartSize(total int64) int64 {
	size := int64(minUploadPartSize)
	if total/size >= maxUploadParts {
		size = (total + maxUploadParts - 1) / maxUploadParts
	}
	if size > maxUploadPartSize {
		size = maxUploadPartSize
	}
	return size
}

func newSpinner(suffix string) *spinner.Spinner {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = suffix
	return sp
}
