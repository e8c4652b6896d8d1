// Package dropship forwards the files of a folder to an HTTP receiver exactly once.
//
// Each call to [Forwarder.Run] scans the folder, skips every file that was
// already forwarded (same content, or same file on disk after a rename),
// posts the rest as multipart/form-data and records what the receiver
// confirmed. It can be used as a standalone CLI application or embedded as a
// library.
//
// # Basic Usage
//
//	cfg := dropship.Config{
//	    FolderPath: "/srv/inbox",
//	    ReceiveURL: "http://receiver:8000/files/",
//	}
//
//	f, err := dropship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	res := f.Run(context.Background())
//	if !res.Succeeded() {
//	    log.Printf("transfer failed: %v", res.Err)
//	}
//
// # Modes
//
// Sequential mode (the default) sends one request per file, records each file
// once the receiver accepts it, pauses [Config.PaceDelay] between files and
// stops at the first failure. Bulk mode ([Config.Bulk]) sends every new file
// in one request and removes all records it created if that request fails.
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external dependencies:
//
//	f, err := dropship.New(cfg,
//	    dropship.WithHTTPClient(mockClient),
//	    dropship.WithLogger(customLogger),
//	)
package dropship
