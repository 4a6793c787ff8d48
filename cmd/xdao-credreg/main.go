package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"xdao.co/credreg/fingerprint"
	"xdao.co/credreg/grpcregistry"
	"xdao.co/credreg/keys"
	"xdao.co/credreg/registry"
	"xdao.co/credreg/snapshot"
	"xdao.co/credreg/storage/bundle"
	"xdao.co/credreg/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "registrar":
		return cmdRegistrar(args[1:], out, errOut)
	case "issue":
		return cmdIssue(args[1:], out, errOut)
	case "revoke":
		return cmdRevoke(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "total":
		return cmdTotal(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "snapshot":
		return cmdSnapshot(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-credreg: certificate registry CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-credreg registrar add --caller <0xaddr> --registrar <0xaddr>")
	fmt.Fprintln(w, "  xdao-credreg registrar remove --caller <0xaddr> --registrar <0xaddr>")
	fmt.Fprintln(w, "  xdao-credreg registrar check <0xaddr>")
	fmt.Fprintln(w, "  xdao-credreg issue --caller <0xaddr> --student <0xaddr> --link <url> (--hash <0xhash> | --file <path>)")
	fmt.Fprintln(w, "  xdao-credreg revoke --caller <0xaddr> --reason <text> (--hash <0xhash> | --file <path>)")
	fmt.Fprintln(w, "  xdao-credreg verify (--hash <0xhash> | --file <path>)")
	fmt.Fprintln(w, "  xdao-credreg get --hash <0xhash>")
	fmt.Fprintln(w, "  xdao-credreg total")
	fmt.Fprintln(w, "  xdao-credreg hash <file>")
	fmt.Fprintln(w, "  xdao-credreg snapshot cid <file>")
	fmt.Fprintln(w, "  xdao-credreg snapshot check <file>")
	fmt.Fprintln(w, "  xdao-credreg snapshot export --state-dir <dir> --out <file>")
	fmt.Fprintln(w, "  xdao-credreg snapshot import --state-dir <dir> --in <file>")
	fmt.Fprintln(w, "  xdao-credreg key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-credreg key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-credreg key list")
	fmt.Fprintln(w, "  xdao-credreg key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  xdao-credreg key principal --name <name> [--role <role>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - registry commands talk to xdao-credregd; --target sets the address (default 127.0.0.1:7878)")
	fmt.Fprintln(w, "  - --caller may be replaced by --signer <name> [--signer-role <role>] to use a stored key's principal")
	fmt.Fprintln(w, "  - --file hashes the document with sha-256 and uses the digest as the certificate hash")
	fmt.Fprintln(w, "  - key files live under ~/.credreg/keys/<name> (0600 seed files)")
}

// dialFlags registers the flags shared by every daemon-facing command.
type dialFlags struct {
	target  string
	timeout time.Duration
}

func (d *dialFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.target, "target", "127.0.0.1:7878", "Daemon address")
	fs.DurationVar(&d.timeout, "timeout", 5*time.Second, "Per-RPC timeout")
}

func (d *dialFlags) dial(errOut io.Writer) (*grpcregistry.Client, int) {
	client, err := grpcregistry.Dial(d.target, grpcregistry.DialOptions{Timeout: d.timeout})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", d.target, err)
		return nil, 1
	}
	client.Timeout = d.timeout
	return client, 0
}

// callerFlags resolves the acting principal from --caller or a stored key.
type callerFlags struct {
	caller     string
	signerName string
	signerRole string
}

func (c *callerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.caller, "caller", "", "Acting principal (0x-hex)")
	fs.StringVar(&c.signerName, "signer", "", "Use a stored key's principal (from 'xdao-credreg key init')")
	fs.StringVar(&c.signerRole, "signer-role", "", "When using --signer, use a derived role key")
}

func (c *callerFlags) resolve(errOut io.Writer) (registry.Principal, int) {
	if c.caller != "" && c.signerName != "" {
		fmt.Fprintln(errOut, "conflicting flags: --caller cannot be combined with --signer")
		return registry.Principal{}, 2
	}
	if c.caller != "" {
		p, err := registry.ParsePrincipal(c.caller)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --caller: %v\n", err)
			return registry.Principal{}, 2
		}
		return p, 0
	}
	if c.signerName == "" {
		fmt.Fprintln(errOut, "missing caller: use --caller or --signer")
		return registry.Principal{}, 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return registry.Principal{}, 1
	}
	hexAddr, err := ks.Principal(c.signerName, c.signerRole)
	if err != nil {
		fmt.Fprintf(errOut, "resolve signer: %v\n", err)
		return registry.Principal{}, 1
	}
	p, err := registry.ParsePrincipal(hexAddr)
	if err != nil {
		fmt.Fprintf(errOut, "resolve signer: %v\n", err)
		return registry.Principal{}, 1
	}
	return p, 0
}

// hashFlags resolves the certificate hash from --hash or by digesting --file.
type hashFlags struct {
	hashHex string
	file    string
}

func (h *hashFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&h.hashHex, "hash", "", "Certificate hash (0x-hex, 32 bytes)")
	fs.StringVar(&h.file, "file", "", "Certificate document; its sha-256 digest becomes the hash")
}

func (h *hashFlags) resolve(errOut io.Writer) (registry.Hash, int) {
	if h.hashHex != "" && h.file != "" {
		fmt.Fprintln(errOut, "conflicting flags: --hash cannot be combined with --file")
		return registry.Hash{}, 2
	}
	if h.hashHex != "" {
		hash, err := registry.ParseHash(h.hashHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --hash: %v\n", err)
			return registry.Hash{}, 2
		}
		return hash, 0
	}
	if h.file == "" {
		fmt.Fprintln(errOut, "missing certificate hash: use --hash or --file")
		return registry.Hash{}, 2
	}
	b, err := os.ReadFile(h.file)
	if err != nil {
		fmt.Fprintf(errOut, "read --file: %v\n", err)
		return registry.Hash{}, 1
	}
	return registry.Hash(fingerprint.Sum(b)), 0
}

func cmdRegistrar(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-credreg registrar <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: add, remove, check")
		return 2
	}
	switch args[0] {
	case "add", "remove":
		mutate := args[0]
		fs := flag.NewFlagSet("registrar "+mutate, flag.ContinueOnError)
		fs.SetOutput(errOut)
		var dial dialFlags
		var caller callerFlags
		var registrarHex string
		dial.register(fs)
		caller.register(fs)
		fs.StringVar(&registrarHex, "registrar", "", "Target registrar (0x-hex)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if registrarHex == "" {
			fmt.Fprintln(errOut, "missing --registrar")
			return 2
		}
		target, err := registry.ParsePrincipal(registrarHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --registrar: %v\n", err)
			return 2
		}
		p, code := caller.resolve(errOut)
		if code != 0 {
			return code
		}
		client, code := dial.dial(errOut)
		if code != 0 {
			return code
		}
		defer client.Close()
		if mutate == "add" {
			err = client.AddRegistrar(p, target)
		} else {
			err = client.RemoveRegistrar(p, target)
		}
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		_, _ = fmt.Fprintln(out, "OK")
		return 0
	case "check":
		fs := flag.NewFlagSet("registrar check", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var dial dialFlags
		dial.register(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-credreg registrar check <0xaddr>")
			return 2
		}
		p, err := registry.ParsePrincipal(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "invalid address: %v\n", err)
			return 2
		}
		client, code := dial.dial(errOut)
		if code != 0 {
			return code
		}
		defer client.Close()
		ok, err := client.IsRegistrar(p)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		if ok {
			_, _ = fmt.Fprintln(out, "registrar")
			return 0
		}
		_, _ = fmt.Fprintln(out, "not a registrar")
		return 1
	default:
		fmt.Fprintf(errOut, "unknown registrar subcommand: %s\n", args[0])
		return 2
	}
}

func cmdIssue(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dial dialFlags
	var caller callerFlags
	var hash hashFlags
	var studentHex string
	var link string
	dial.register(fs)
	caller.register(fs)
	hash.register(fs)
	fs.StringVar(&studentHex, "student", "", "Student principal (0x-hex)")
	fs.StringVar(&link, "link", "", "Document link stored with the certificate")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if studentHex == "" {
		fmt.Fprintln(errOut, "missing --student")
		return 2
	}
	student, err := registry.ParsePrincipal(studentHex)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --student: %v\n", err)
		return 2
	}
	if link == "" {
		fmt.Fprintln(errOut, "missing --link")
		return 2
	}
	p, code := caller.resolve(errOut)
	if code != 0 {
		return code
	}
	h, code := hash.resolve(errOut)
	if code != 0 {
		return code
	}
	client, code := dial.dial(errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	if err := client.IssueCertificate(p, h, student, link); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, h)
	return 0
}

func cmdRevoke(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dial dialFlags
	var caller callerFlags
	var hash hashFlags
	var reason string
	dial.register(fs)
	caller.register(fs)
	hash.register(fs)
	fs.StringVar(&reason, "reason", "", "Revocation reason (recorded in the event log only)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if reason == "" {
		fmt.Fprintln(errOut, "missing --reason")
		return 2
	}
	p, code := caller.resolve(errOut)
	if code != 0 {
		return code
	}
	h, code := hash.resolve(errOut)
	if code != 0 {
		return code
	}
	client, code := dial.dial(errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	if err := client.RevokeCertificate(p, h, reason); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dial dialFlags
	var hash hashFlags
	dial.register(fs)
	hash.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	h, code := hash.resolve(errOut)
	if code != 0 {
		return code
	}
	client, code := dial.dial(errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	valid, rec, err := client.VerifyCertificate(h)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if !valid {
		_, _ = fmt.Fprintln(out, "INVALID")
		if !rec.Hash.IsZero() {
			printRecord(out, rec)
		}
		return 1
	}
	_, _ = fmt.Fprintln(out, "VALID")
	printRecord(out, rec)
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dial dialFlags
	var hash hashFlags
	dial.register(fs)
	hash.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	h, code := hash.resolve(errOut)
	if code != 0 {
		return code
	}
	client, code := dial.dial(errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	rec, err := client.GetCertificate(h)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	printRecord(out, rec)
	return 0
}

func printRecord(out io.Writer, rec registry.CertificateRecord) {
	fmt.Fprintf(out, "Hash:       %s\n", rec.Hash)
	fmt.Fprintf(out, "Issuer:     %s\n", rec.Issuer)
	fmt.Fprintf(out, "Student:    %s\n", rec.Student)
	fmt.Fprintf(out, "Link:       %s\n", rec.DriveLink)
	fmt.Fprintf(out, "Issued:     %s\n", time.Unix(rec.IssueDate, 0).UTC().Format(time.RFC3339))
	if rec.Revoked {
		fmt.Fprintf(out, "Revoked:    %s\n", time.Unix(rec.RevokeDate, 0).UTC().Format(time.RFC3339))
	}
}

func cmdTotal(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("total", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dial dialFlags
	dial.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	client, code := dial.dial(errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	total, err := client.TotalCertificates()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, total)
	return 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var printCID bool
	fs.BoolVar(&printCID, "cid", false, "Also print the document's CIDv1 (raw, sha2-256)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-credreg hash [--cid] <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
		return 1
	}
	digest := fingerprint.Sum(b)
	_, _ = fmt.Fprintln(out, fingerprint.Hex(digest))
	if printCID {
		_, _ = fmt.Fprintln(out, fingerprint.CIDv1RawSHA256(b))
	}
	return 0
}

func cmdSnapshot(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-credreg snapshot <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: cid, check, export, import")
		return 2
	}
	switch args[0] {
	case "cid":
		fs := flag.NewFlagSet("snapshot cid", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-credreg snapshot cid <file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read snapshot: %v\n", err)
			return 1
		}
		if _, err := snapshot.Parse(b); err != nil {
			fmt.Fprintf(errOut, "invalid snapshot: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, snapshot.CID(b))
		return 0
	case "check":
		fs := flag.NewFlagSet("snapshot check", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-credreg snapshot check <file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read snapshot: %v\n", err)
			return 1
		}
		st, err := snapshot.Parse(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid snapshot: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "OK: admin=%s registrars=%d certificates=%d\n",
			st.Admin, len(st.Registrars), len(st.Records))
		return 0
	case "export":
		fs := flag.NewFlagSet("snapshot export", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var stateDir string
		var outPath string
		fs.StringVar(&stateDir, "state-dir", "", "Daemon state directory to export from")
		fs.StringVar(&outPath, "out", "", "Bundle file to write")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if stateDir == "" || outPath == "" {
			fmt.Fprintln(errOut, "usage: xdao-credreg snapshot export --state-dir <dir> --out <file>")
			return 2
		}
		cas, err := localfs.New(filepath.Join(stateDir, "objects"))
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		head, ok, err := snapshot.ReadHead(stateDir)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		if !ok {
			fmt.Fprintf(errOut, "no HEAD in %s\n", stateDir)
			return 1
		}
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		if err := bundle.Write(f, cas, head); err != nil {
			_ = f.Close()
			fmt.Fprintf(errOut, "export: %v\n", err)
			return 1
		}
		if err := f.Close(); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		_, _ = fmt.Fprintln(out, head)
		return 0
	case "import":
		fs := flag.NewFlagSet("snapshot import", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var stateDir string
		var inPath string
		fs.StringVar(&stateDir, "state-dir", "", "Daemon state directory to import into")
		fs.StringVar(&inPath, "in", "", "Bundle file to read")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if stateDir == "" || inPath == "" {
			fmt.Fprintln(errOut, "usage: xdao-credreg snapshot import --state-dir <dir> --in <file>")
			return 2
		}
		cas, err := localfs.New(filepath.Join(stateDir, "objects"))
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		f, err := os.Open(inPath)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		defer f.Close()
		head, err := bundle.Read(f, cas)
		if err != nil {
			fmt.Fprintf(errOut, "import: %v\n", err)
			return 1
		}
		if err := snapshot.WriteHead(stateDir, head); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		_, _ = fmt.Fprintln(out, head)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown snapshot subcommand: %s\n", args[0])
		return 2
	}
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "principal":
		return cmdKeyPrincipal(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-credreg key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-credreg key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-credreg key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-credreg key list")
	fmt.Fprintln(w, "  xdao-credreg key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  xdao-credreg key principal --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.credreg/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	signerKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. registrar, student)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, rolePath, err := ks.DeriveKeyForRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports the derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, signerKey)
	return 0
}

func cmdKeyPrincipal(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key principal", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, uses the derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	p, err := ks.Principal(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "principal: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, p)
	return 0
}
