// Package fabriclog turns unstructured fabric purchase information into
// inventory rows. Product text, a product page URL, or one or more photos of a
// fabric are sent to a Gemini model, the JSON object embedded in the model's
// reply is decoded into a FabricRecord, the operator reviews and corrects the
// fields, and the reconciled record is appended to a spreadsheet.
//
// # Pipeline
//
//	input → Extractor → ParseRecord → (human edit) → Reconcile → Sink
//
// Each stage is usable on its own:
//
//   - Extractor renders the instruction template and performs exactly one
//     generation call per extraction. Multiple images travel in the same
//     request and the model is told they show one physical item.
//   - ParseRecord takes the span from the first '{' to the last '}' of the
//     reply and decodes it tolerantly: missing keys become blank fields,
//     unknown keys are ignored and numeric-looking strings such as "2,000円"
//     are coerced.
//   - Reconcile applies operator edits and recomputes the unit price as
//     floor(total_price / length_m). The model's own unit price is never
//     trusted.
//   - SheetsSink and WorkbookSink append one row per record in the column
//     order returned by FabricRecord.Row.
//
// # Sessions
//
// A Session owns the working record between extraction and save. A failed
// save keeps the reconciled record so the operator can retry without running
// the model again, and a successful save clears it so a stale save action
// cannot append the same row twice.
//
//	client, _ := genai.NewClient(ctx, &genai.ClientConfig{
//		APIKey:  os.Getenv("GEMINI_API_KEY"),
//		Backend: genai.BackendGeminiAPI,
//	})
//	prompts, _ := fabriclog.DefaultPrompts()
//	ext := fabriclog.NewExtractor(client, prompts, fabriclog.WithTimeout(time.Minute))
//	sink, _ := fabriclog.NewWorkbookSink("fabric-log.xlsx", "在庫")
//
//	sess := fabriclog.NewSession(uuid.NewString(), ext, sink)
//	rec, err := sess.Extract(ctx, fabriclog.TextInput(productText))
//	var malformed *fabriclog.MalformedResponse
//	if errors.As(err, &malformed) {
//		fmt.Println(malformed.Raw) // show it, let the operator type the fields
//	}
//	length := 2.0
//	saved, err := sess.Save(ctx, fabriclog.Edits{LengthM: &length})
//
// # Errors
//
// Three recoverable failures are reported as typed errors and never end a
// session: *ExtractionFailure, *MalformedResponse and *SaveFailure. Missing
// credentials are reported by LoadSettings as ErrMissingCredentials and are
// meant to stop the process at startup.
package fabriclog
