package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/connorholly11/purpose-voice/internal/playback"
	"github.com/connorholly11/purpose-voice/internal/rtc"
	"github.com/connorholly11/purpose-voice/internal/token"
	"github.com/connorholly11/purpose-voice/internal/voicesession"
)

func main() {
	tokenURL := flag.String("token-url", "http://localhost:8080/api/rt-session", "token provider endpoint")
	negotiateURL := flag.String("negotiate-url", "https://api.openai.com/v1/realtime", "remote SDP negotiation endpoint")
	voice := flag.String("voice", "alloy", "voice preset")
	audioPath := flag.String("audio", "", "ogg/opus file to stream as the microphone")
	iceServers := flag.String("ice", "stun:stun.l.google.com:19302", "comma-separated ICE server URLs")
	outPath := flag.String("out", "", "write decoded playback PCM to this file (empty: discard)")
	volume := flag.Float64("volume", 1.0, "initial output volume")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *audioPath == "" {
		log.Error("missing -audio")
		os.Exit(2)
	}

	sink, cleanup, err := buildSink(*outPath)
	if err != nil {
		log.Error("failed to open output", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctrl := playback.NewController(sink, log)
	ctrl.SetVolume(*volume)

	dialer := rtc.NewDialer(rtc.Config{
		NegotiationURL: *negotiateURL,
		ICEServers:     parseICEServers(*iceServers),
	}, rtc.NewOggFileSource(*audioPath), log)

	session := voicesession.New(voicesession.Config{
		Voice:    *voice,
		Tokens:   token.NewClient(token.ClientConfig{URL: *tokenURL}),
		Dialer:   dialer,
		Playback: ctrl,
		Callbacks: voicesession.Callbacks{
			OnPartialTranscript: func(text string) {
				fmt.Printf("\r... %s", text)
			},
			OnCompletedTranscript: func(text string) {
				fmt.Printf("\ryou: %s\n", text)
			},
			OnCompletedResponse: func(text string) {
				fmt.Printf("assistant: %s\n", text)
			},
			OnStatusChange: func(status voicesession.Status, errMessage string) {
				if errMessage != "" {
					log.Error("session status", "status", status, "error", errMessage)
					return
				}
				log.Info("session status", "status", status)
			},
		},
		Log: log,
	})

	if err := session.Start(); err != nil {
		log.Error("start failed", "error", err)
		os.Exit(1)
	}
	defer session.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}

func parseICEServers(csv string) []rtc.ICEServerConfig {
	var servers []rtc.ICEServerConfig
	for _, url := range strings.Split(csv, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		servers = append(servers, rtc.ICEServerConfig{URLs: []string{url}})
	}
	return servers
}

func buildSink(outPath string) (playback.Sink, func(), error) {
	if outPath == "" {
		return playback.DiscardSink{}, func() {}, nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}

	sink, err := playback.NewPCMSink(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return sink, func() { f.Close() }, nil
}
