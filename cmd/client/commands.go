package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkeye/VoiceRoom/internal/audio"
	"github.com/dkeye/VoiceRoom/internal/client"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

type options struct {
	server   string
	username string
	password string
	token    string
	room     string
	png      string
	width    int
	height   int
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "voiceroom-client",
		Short:        "Talk to a VoiceRoom server from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			if opts.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.String("server", "http://localhost:8080", "server base URL")
	pf.StringP("user", "u", "", "username")
	pf.StringP("password", "p", "", "password")
	pf.String("token", "", "bearer token, instead of username and password")
	pf.String("png", "", "write the waveform to this PNG file")
	pf.Int("width", 800, "waveform width in pixels")
	pf.Int("height", 200, "waveform height in pixels")
	pf.BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(
		newCreateCmd(opts),
		newChatCmd(opts),
		newRecordCmd(opts),
		newListenCmd(opts),
		newPlayCmd(opts),
		newRenderCmd(opts),
	)
	return root
}

// load resolves the shared options of cmd. A flag given on the command line wins over
// VOICEROOM_<FLAG>, which wins over the flag default.
func (o *options) load(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("VOICEROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	o.server = v.GetString("server")
	o.username = v.GetString("user")
	o.password = v.GetString("password")
	o.token = v.GetString("token")
	o.room = v.GetString("room")
	o.png = v.GetString("png")
	o.width = v.GetInt("width")
	o.height = v.GetInt("height")
	o.verbose = v.GetBool("verbose")
	return nil
}

func (o *options) login(ctx context.Context) (*client.Client, error) {
	c := client.New(o.server)
	if o.token != "" {
		c.Token = o.token
		return c, nil
	}
	if o.username == "" {
		return nil, errors.New("--user or --token is required")
	}
	if _, err := c.Login(ctx, o.username, o.password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}

// renderer returns a renderer that flushes to --png after every draw, or nil without --png.
func (o *options) renderer() *audio.Renderer {
	if o.png == "" {
		return nil
	}
	canvas := audio.NewPNGCanvas(o.width, o.height)
	r := audio.NewRenderer(canvas)
	r.OnDraw = func(audio.Canvas) {
		if err := canvas.SavePNG(o.png); err != nil {
			log.Error().Err(err).Str("module", "cli").Str("png", o.png).Msg("save waveform")
		}
	}
	return r
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a room and print its id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.login(cmd.Context())
			if err != nil {
				return err
			}
			room, err := c.CreateRoom(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), room.ID)
			return nil
		},
	}
}

func joinRoom(ctx context.Context, opts *options, h client.Handlers) (*client.Conn, error) {
	if opts.room == "" {
		return nil, errors.New("--room is required")
	}
	c, err := opts.login(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.GetRoom(ctx, opts.room); err != nil {
		return nil, err
	}
	conn, err := c.Dial(ctx, h)
	if err != nil {
		return nil, err
	}
	joinCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.Join(joinCtx, opts.room); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Info().Str("module", "cli").Str("room", conn.Room()).Msg("joined")
	return conn, nil
}

func printMessages(cmd *cobra.Command) client.Handlers {
	out := cmd.OutOrStdout()
	return client.Handlers{
		OnMessage: func(ev protocol.ReceiveMessageEvent) {
			fmt.Fprintf(out, "<%s> %s\n", ev.From, ev.Message)
		},
		OnError: func(ev protocol.ErrorEvent) {
			log.Warn().Str("module", "cli").Str("event", string(ev.Event)).Str("error", ev.Error).Msg("server rejected event")
		},
	}
}

func newChatCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat --room ROOM MESSAGE",
		Short: "Send one chat message to a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := joinRoom(cmd.Context(), opts, printMessages(cmd))
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := conn.SendMessage(args[0]); err != nil {
				return err
			}
			// our own message comes back once it has been relayed
			select {
			case <-time.After(time.Second):
			case <-conn.Done():
			}
			return nil
		},
	}
	addRoomFlag(cmd)
	return cmd
}

func newRecordCmd(opts *options) *cobra.Command {
	var wavPath string
	var fast bool
	var live time.Duration
	cmd := &cobra.Command{
		Use:   "record --room ROOM --wav FILE",
		Short: "Stream a WAV file into a room as a live recording",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			conn, err := joinRoom(ctx, opts, printMessages(cmd))
			if err != nil {
				return err
			}
			defer conn.Close()

			var frames atomic.Int64
			r := opts.renderer()
			if r != nil {
				save := r.OnDraw
				r.OnDraw = func(c audio.Canvas) {
					frames.Add(1)
					save(c)
				}
			}
			seq := audio.NewSequence()
			mic := &audio.FileMicrophone{Path: wavPath, Realtime: !fast}
			capture := audio.NewCapture(mic, conn, seq, r)
			capture.FrameInterval = live
			if err := capture.Start(ctx); err != nil {
				return err
			}
			select {
			case <-capture.Done():
			case <-ctx.Done():
			case <-conn.Done():
			}
			capture.Stop()
			log.Info().Str("module", "cli").Msg("recording sent")
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d chunks, drew %d frames\n", seq.Len(), frames.Load())
			return conn.Err()
		},
	}
	addRoomFlag(cmd)
	cmd.Flags().StringVar(&wavPath, "wav", "", "16, 24 or 32 bit PCM WAV file to stream")
	cmd.Flags().BoolVar(&fast, "fast", false, "send as fast as possible instead of in real time")
	cmd.Flags().DurationVar(&live, "live", 0, "redraw the live signal to --png at this interval while recording")
	_ = cmd.MarkFlagRequired("wav")
	return cmd
}

func newListenCmd(opts *options) *cobra.Command {
	var outWAV string
	cmd := &cobra.Command{
		Use:   "listen --room ROOM",
		Short: "Print chat and rebuild the recording streamed into a room",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			remote := client.NewRemoteAudio(opts.renderer())
			conn, err := joinRoom(ctx, opts, remote.Handlers(printMessages(cmd)))
			if err != nil {
				return err
			}
			defer conn.Close()

			select {
			case <-ctx.Done():
			case <-conn.Done():
			}
			if outWAV != "" && !remote.Seq.Empty() {
				data, err := audio.Reconstruct(remote.Seq.Bytes())
				if err != nil {
					return err
				}
				if err := os.WriteFile(outWAV, data, 0o644); err != nil {
					return err
				}
				log.Info().Str("module", "cli").Str("wav", outWAV).Int("chunks", remote.Seq.Len()).Msg("recording saved")
			}
			return nil
		},
	}
	addRoomFlag(cmd)
	cmd.Flags().StringVar(&outWAV, "out", "", "save the last received recording as WAV on exit")
	return cmd
}

func newPlayCmd(opts *options) *cobra.Command {
	var wavPath string
	var seek float64
	var wait, frame time.Duration
	cmd := &cobra.Command{
		Use:   "play (--wav FILE | --room ROOM) [--seek RATIO]",
		Short: "Play a WAV file or the next recording streamed into a room, drawing the playhead",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			var data []byte
			var err error
			switch {
			case wavPath != "":
				data, err = os.ReadFile(wavPath)
			case opts.room != "":
				data, err = receiveRecording(ctx, cmd, opts, wait)
			default:
				return errors.New("--wav or --room is required")
			}
			if err != nil {
				return err
			}
			return play(ctx, cmd.OutOrStdout(), opts.renderer(), data, seek, frame)
		},
	}
	addRoomFlag(cmd)
	cmd.Flags().StringVar(&wavPath, "wav", "", "WAV file to play")
	cmd.Flags().Float64Var(&seek, "seek", 0, "start at this fraction of the recording, 0 to 1")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "with --room, how long to listen before playing")
	cmd.Flags().DurationVar(&frame, "frame", 50*time.Millisecond, "playhead redraw interval")
	return cmd
}

// receiveRecording listens in the room for wait and returns what was streamed meanwhile.
func receiveRecording(ctx context.Context, cmd *cobra.Command, opts *options, wait time.Duration) ([]byte, error) {
	remote := client.NewRemoteAudio(nil)
	conn, err := joinRoom(ctx, opts, remote.Handlers(printMessages(cmd)))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	select {
	case <-time.After(wait):
	case <-ctx.Done():
	case <-conn.Done():
	}
	if remote.Seq.Empty() {
		return nil, audio.ErrNothingToPlay
	}
	return remote.Seq.Bytes(), nil
}

// play runs data against the clock from seek, redrawing the playhead on r, until the
// end or until ctx is done.
func play(ctx context.Context, out io.Writer, r *audio.Renderer, data []byte, seek float64, frame time.Duration) error {
	total, err := audio.Duration(data)
	if err != nil {
		return err
	}
	pb := audio.NewPlayback()
	if frame > 0 {
		pb.FrameInterval = frame
	}
	ended := make(chan struct{})
	pb.OnPlayhead = func(pos time.Duration, ratio float64) {
		if r != nil {
			r.DrawPlayhead(data, ratio)
		}
		log.Debug().Str("module", "cli").Dur("pos", pos).Msg("playhead")
	}
	pb.OnEnded = func() { close(ended) }

	if r != nil {
		r.DrawPlayhead(data, seek)
	}
	if err := pb.Seek(ctx, data, seek); err != nil {
		return err
	}
	defer pb.Close()
	offset := time.Duration(float64(total) * min(max(seek, 0), 1))
	fmt.Fprintf(out, "playing %s from %s\n", total, offset)

	select {
	case <-ended:
		fmt.Fprintln(out, "ended")
	case <-ctx.Done():
	}
	return nil
}

func newRenderCmd(opts *options) *cobra.Command {
	var wavPath string
	cmd := &cobra.Command{
		Use:   "render --wav FILE --png OUT",
		Short: "Draw the waveform of a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.png == "" {
				return errors.New("--png is required")
			}
			data, err := os.ReadFile(wavPath)
			if err != nil {
				return err
			}
			if !opts.renderer().DrawCombined(data) {
				return fmt.Errorf("%s: %w", wavPath, audio.ErrDecodeSkip)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&wavPath, "wav", "", "WAV file to draw")
	_ = cmd.MarkFlagRequired("wav")
	return cmd
}

func addRoomFlag(cmd *cobra.Command) {
	cmd.Flags().String("room", "", "room id, defaults to $VOICEROOM_ROOM")
}
