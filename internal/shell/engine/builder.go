package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
)

// =============================================================================
// Local Builder
// =============================================================================

// LocalBuilder implements Builder against the operator machine's Docker
// daemon through the SDK. Build, tag, and push all run here, before any
// server mutation begins.
type LocalBuilder struct {
	cli    *client.Client
	logger *slog.Logger
}

// NewLocalBuilder connects to the local Docker daemon.
func NewLocalBuilder(logger *slog.Logger) (*LocalBuilder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, NewEngineError("NewLocalBuilder", "", "", "failed to create docker client", ErrConnectionFailed)
	}
	return &LocalBuilder{
		cli:    cli,
		logger: logger.With("component", "builder"),
	}, nil
}

// Close releases the SDK client.
func (b *LocalBuilder) Close() error {
	return b.cli.Close()
}

// BuildImage builds the spec's context directory into the given tag.
func (b *LocalBuilder) BuildImage(ctx context.Context, spec BuildSpec, tag string) error {
	contextDir := spec.Context
	if contextDir == "" {
		contextDir = "."
	}
	dockerfile := spec.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	b.logger.Info("building image", "tag", tag, "context", contextDir)

	buildCtx, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return NewEngineError("BuildImage", "", tag,
			fmt.Sprintf("tar build context %s: %v", contextDir, err), ErrBuildFailed)
	}
	defer buildCtx.Close()

	args := make(map[string]*string, len(spec.Args))
	for k, v := range spec.Args {
		value := v
		args[k] = &value
	}

	resp, err := b.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: filepath.ToSlash(dockerfile),
		BuildArgs:  args,
		Platform:   spec.Platform,
		Remove:     true,
	})
	if err != nil {
		return NewEngineError("BuildImage", "", tag, err.Error(), ErrBuildFailed)
	}
	defer resp.Body.Close()

	// The daemon streams progress as JSON messages; an error arrives as a
	// message, not as a transport failure.
	if err := drainBuildStream(resp.Body); err != nil {
		return NewEngineError("BuildImage", "", tag, err.Error(), ErrBuildFailed)
	}
	return nil
}

// TagImage applies an additional reference to a local image.
func (b *LocalBuilder) TagImage(ctx context.Context, src, dst string) error {
	if err := b.cli.ImageTag(ctx, src, dst); err != nil {
		return NewEngineError("TagImage", "", dst, err.Error(), err)
	}
	return nil
}

// PushImage pushes a reference. Credentials ride on the single request, so
// there is no cached login to clean up afterwards.
func (b *LocalBuilder) PushImage(ctx context.Context, ref string, auth PushAuth) error {
	b.logger.Info("pushing image", "image", ref)

	encoded := ""
	if !auth.Anonymous {
		var err error
		encoded, err = registry.EncodeAuthConfig(registry.AuthConfig{
			Username:      auth.Username,
			Password:      auth.Password,
			ServerAddress: auth.Registry,
		})
		if err != nil {
			return NewEngineError("PushImage", "", ref, err.Error(), ErrPushFailed)
		}
	}

	reader, err := b.cli.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return NewEngineError("PushImage", "", ref, err.Error(), ErrPushFailed)
	}
	defer reader.Close()

	if err := drainBuildStream(reader); err != nil {
		return NewEngineError("PushImage", "", ref, err.Error(), ErrPushFailed)
	}
	return nil
}

// drainBuildStream consumes a daemon JSON progress stream and surfaces any
// embedded error message.
func drainBuildStream(r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var msg struct {
			Error string `json:"error"`
		}
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decode daemon stream: %w", err)
		}
		if msg.Error != "" {
			return fmt.Errorf("%s", strings.TrimSpace(msg.Error))
		}
	}
}
