// Command galleryctl drives a gallery gateway from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gallery-service/internal/gallery"

	"github.com/joho/godotenv"
)

const (
	envFilePath    = ".env"
	envGatewayURL  = "GALLERY_URL"
	envStudioURL   = "STUDIO_URL"
	defaultGateway = "http://localhost:8080"
	requestTimeout = 60 * time.Second
	sniffLen       = 512
)

const usage = `usage: galleryctl [-url URL] <command> [args]

commands:
  buckets                       list buckets
  create NAME                   create a public bucket
  list -bucket NAME             list images in a bucket
  upload -bucket NAME FILE...   upload image files
  view -bucket NAME             browse a bucket (n=next, p=prev, q=quit)
`

func main() {
	_ = godotenv.Load(envFilePath)
	log.SetFlags(0)

	gatewayURL := flag.String("url", envOr(envGatewayURL, defaultGateway), "gateway base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := gallery.NewClient(*gatewayURL, &http.Client{Timeout: requestTimeout})
	ctl := gallery.NewController(client, gallery.Options{StudioURL: os.Getenv(envStudioURL)})

	if err := run(ctx, ctl, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("galleryctl: %v", err)
	}
}

func run(ctx context.Context, ctl *gallery.Controller, cmd string, args []string) error {
	switch cmd {
	case "buckets":
		if err := ctl.LoadBuckets(ctx); err != nil {
			return err
		}
		for _, b := range ctl.Snapshot().Buckets {
			fmt.Println(b.Name)
		}
		return nil

	case "create":
		if len(args) != 1 {
			return errors.New("create takes exactly one bucket name")
		}
		err := ctl.CreateBucket(ctx, args[0])
		fmt.Println(ctl.Snapshot().CreateStatus)
		if errors.Is(err, gallery.ErrBucketExists) {
			return nil
		}
		return err

	case "list":
		bucket, _, err := parseBucketFlags(cmd, args)
		if err != nil {
			return err
		}
		ctl.SelectBucket(bucket)
		if err := ctl.LoadGallery(ctx); err != nil {
			return err
		}
		for _, img := range ctl.Snapshot().Images {
			fmt.Printf("%s\t%s\n", img.Name, img.URL)
		}
		if link := ctl.StudioURL(); link != "" {
			fmt.Println(link)
		}
		return nil

	case "upload":
		bucket, paths, err := parseBucketFlags(cmd, args)
		if err != nil {
			return err
		}
		files, err := readFiles(paths)
		if err != nil {
			return err
		}
		ctl.SelectBucket(bucket)
		if _, err := ctl.SelectFiles(files); err != nil {
			return err
		}
		result, err := ctl.Upload(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %d, failed %d\n", result.Succeeded, result.Failed)
		if result.Failed > 0 {
			return fmt.Errorf("%d file(s) failed to upload", result.Failed)
		}
		return nil

	case "view":
		bucket, _, err := parseBucketFlags(cmd, args)
		if err != nil {
			return err
		}
		return view(ctx, ctl, bucket, os.Stdin, os.Stdout)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseBucketFlags(cmd string, args []string) (string, []string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	bucket := fs.String("bucket", "", "bucket name")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if *bucket == "" {
		return "", nil, fmt.Errorf("%s requires -bucket", cmd)
	}
	return *bucket, fs.Args(), nil
}

func readFiles(paths []string) ([]gallery.SelectedFile, error) {
	files := make([]gallery.SelectedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, gallery.SelectedFile{
			Name:        filepath.Base(p),
			ContentType: contentType(p, data),
			Data:        data,
		})
	}
	return files, nil
}

func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return http.DetectContentType(data)
}

// view pages through a bucket's images. Lines read from in are mapped to
// lightbox keys and dispatched through a KeyBus.
func view(ctx context.Context, ctl *gallery.Controller, bucket string, in io.Reader, out io.Writer) error {
	keys := gallery.NewKeyBus()
	ctl.Mount(ctx, keys)
	defer ctl.Unmount()

	ctl.SelectBucket(bucket)
	if err := ctl.LoadGallery(ctx); err != nil {
		return err
	}
	if len(ctl.Snapshot().Images) == 0 {
		fmt.Fprintf(out, "no images in %q\n", bucket)
		return nil
	}
	ctl.Open(0)

	scanner := bufio.NewScanner(in)
	for {
		state := ctl.Snapshot()
		img, ok := state.Current()
		if !ok {
			return nil
		}
		fmt.Fprintf(out, "[%d/%d] %s %s\n", state.Lightbox.Index+1, len(state.Images), img.Name, img.URL)

		if ctx.Err() != nil || !scanner.Scan() {
			return scanner.Err()
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "n", "":
			keys.Dispatch(gallery.KeyArrowRight)
		case "p":
			keys.Dispatch(gallery.KeyArrowLeft)
		case "q":
			keys.Dispatch(gallery.KeyEscape)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
