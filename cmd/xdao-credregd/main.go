package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"

	"xdao.co/credreg/eventlog"
	"xdao.co/credreg/grpcregistry"
	"xdao.co/credreg/registry"
	"xdao.co/credreg/snapshot"
	"xdao.co/credreg/storage"
	"xdao.co/credreg/storage/localfs"
)

// snapshotSaver archives the full registry state after every committed
// mutation and advances HEAD to the new snapshot CID. Emit runs outside the
// registry's write lock, so Snapshot here observes at least the emitting
// mutation.
type snapshotSaver struct {
	reg      *registry.Registry
	archive  snapshot.Archive
	stateDir string
}

func (s *snapshotSaver) Emit(ev registry.Event) {
	id, err := s.archive.Save(s.reg.Snapshot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot after %s: %v\n", ev.EventName(), err)
		return
	}
	if err := snapshot.WriteHead(s.stateDir, id); err != nil {
		fmt.Fprintf(os.Stderr, "advance HEAD: %v\n", err)
	}
}

func openStateCAS(stateDir, mirrorDir string) (storage.CAS, error) {
	primary, err := localfs.New(filepath.Join(stateDir, "objects"))
	if err != nil {
		return nil, err
	}
	if mirrorDir == "" {
		return primary, nil
	}
	mirror, err := localfs.New(filepath.Join(mirrorDir, "objects"))
	if err != nil {
		return nil, err
	}
	return storage.Mirrored{Backends: []storage.NamedCAS{
		{Name: "primary", CAS: primary},
		{Name: "mirror", CAS: mirror},
	}}, nil
}

func main() {
	fs := flag.NewFlagSet("xdao-credregd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7878", "listen address")
	adminHex := fs.String("admin", "", "admin principal (0x-hex), required on first start")
	stateDir := fs.String("state-dir", "", "state directory for snapshots (empty disables persistence)")
	mirrorDir := fs.String("mirror-dir", "", "optional second state directory; snapshots are written to both")
	eventsPath := fs.String("events", "", "append-only JSONL event log path (empty disables)")

	_ = fs.Parse(os.Args[1:])
	if *mirrorDir != "" && *stateDir == "" {
		fmt.Fprintln(os.Stderr, "-mirror-dir requires -state-dir")
		os.Exit(2)
	}

	var sinks []registry.Sink
	if *eventsPath != "" {
		jsonl, err := eventlog.NewJSONL(*eventsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer jsonl.Close()
		sinks = append(sinks, jsonl)
	}

	var saver *snapshotSaver
	var archive snapshot.Archive
	if *stateDir != "" {
		cas, err := openStateCAS(*stateDir, *mirrorDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		archive = snapshot.Archive{CAS: cas}
		saver = &snapshotSaver{archive: archive, stateDir: *stateDir}
		sinks = append(sinks, saver)
	}

	opts := []registry.Option{registry.WithSink(eventlog.NewFanout(sinks...))}

	var reg *registry.Registry
	var head cid.Cid
	var resumed bool
	if *stateDir != "" {
		var err error
		head, resumed, err = snapshot.ReadHead(*stateDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if resumed {
		st, err := archive.Load(head)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		reg, err = registry.Restore(st, opts...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	} else {
		if *adminHex == "" {
			fmt.Fprintln(os.Stderr, "no prior state: -admin is required")
			os.Exit(2)
		}
		admin, err := registry.ParsePrincipal(*adminHex)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		reg, err = registry.New(admin, opts...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if saver != nil {
		saver.reg = reg
	}
	if saver != nil && !resumed {
		// A restart before the first mutation resumes without -admin.
		id, err := archive.Save(reg.Snapshot())
		if err == nil {
			err = snapshot.WriteHead(*stateDir, id)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcregistry.RegisterRegistryServer(s, &grpcregistry.Server{Registry: reg})

	mode := "fresh"
	if resumed {
		mode = "resumed from " + head.String()
	}
	fmt.Fprintf(os.Stderr, "xdao-credregd listening on %s (admin=%s, %s)\n", lis.Addr().String(), reg.Admin(), mode)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
