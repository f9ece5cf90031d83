// Command aidos is a terminal client for the AI-Dos kids' chat service.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tmc/aidos"
	"github.com/tmc/aidos/api"
	"github.com/tmc/aidos/audioplayer"
	"github.com/tmc/aidos/config"
	"github.com/tmc/aidos/dictation"
	"github.com/tmc/aidos/internal/logging"
	"github.com/tmc/aidos/settings"
	"golang.org/x/term"
)

var (
	cfgFile   string
	stdinMode bool

	chatURL    string
	speechURL  string
	statePath  string
	playerCmd  string
	logFile    string
	logLevel   string
	allowMulti bool
)

var rootCmd = &cobra.Command{
	Use:   "aidos",
	Short: "Chat with AI-Dos from the terminal",
	Long: `aidos is a terminal client for the AI-Dos kids' chat service.

Replies stream into a scrolling transcript and can be read aloud. Type a
message, attach a picture (Ctrl+U upload, Ctrl+P camera), dictate with the
microphone (Ctrl+R) or ask for riddles (Ctrl+G).

Configuration is read from the --config file (default in the user config
directory), then AIDOS_* environment variables, then flags.

Stdin mode:
  echo "Hello" | aidos --stdin
  Lines starting with /image, /riddle, /speech or /history are commands.`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&chatURL, "chat-url", "", "chat endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&speechURL, "speech-url", "", "speech endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "state database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file, empty keeps the configured one")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.Flags().BoolVar(&stdinMode, "stdin", false, "read messages from stdin without running the TUI")
	rootCmd.Flags().StringVar(&playerCmd, "player", "", "audio player command, auto-detected if empty")
	rootCmd.Flags().BoolVar(&allowMulti, "allow-overlap", false, "allow sending while a reply is still streaming")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment and applies flags set on
// the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("chat-url") {
		cfg.ChatURL = chatURL
	}
	if flags.Changed("speech-url") {
		cfg.SpeechURL = speechURL
	}
	if flags.Changed("state") {
		cfg.StatePath = statePath
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("player") {
		cfg.PlayerCommand = playerCmd
	}
	if flags.Changed("allow-overlap") {
		cfg.SingleFlight = !allowMulti
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg *config.Config) io.Closer {
	closer, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		closer, _ = logging.Setup("", cfg.LogLevel)
	}
	return closer
}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.ChatURL, cfg.SpeechURL, cfg.HealthURL)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer setupLogging(cfg).Close()
	log.Info().Str("chat_url", cfg.ChatURL).Bool("single_flight", cfg.SingleFlight).Msg("--- application start ---")

	player, err := audioplayer.Detect(cfg.PlayerCommand)
	if err != nil {
		log.Warn().Err(err).Msg("speech playback disabled")
	}
	camera, err := aidos.DetectCamera(cfg.CameraCommand)
	if err != nil {
		log.Info().Err(err).Msg("camera control hidden")
	}

	m := aidos.New(
		aidos.WithClient(newClient(cfg)),
		aidos.WithStore(settings.Open(cfg.StatePath)),
		aidos.WithAudioPlayer(player),
		aidos.WithCamera(camera),
		aidos.WithDictation(dictation.Detect(cfg.DictationCommand, cfg.DictationLanguage)),
		aidos.WithRequestTimeout(cfg.RequestTimeout),
		aidos.WithSpeechTimeout(cfg.SpeechTimeout),
		aidos.WithSingleFlight(cfg.SingleFlight),
	)
	defer m.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if stdinMode || !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Info().Msg("running in stdin mode")
		return m.ProcessStdinMode(ctx, os.Stdin, os.Stdout)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
