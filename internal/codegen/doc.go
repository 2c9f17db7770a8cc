// Package codegen generates React pages from sketch layouts with a chat
// model reached through langchaingo.
//
// The model receives the whole layout history, so it knows every page of
// the site, plus the code already generated for other pages. It answers with
// JSON:
//
//	{"files": {"home/page.tsx": "export default function Home() {...}"},
//	 "context": "Landing page with a hero, three feature cards and a footer."}
//
// The page for sketch "home.png" must be returned as "home/page.tsx" (see
// ExpectedFilename). The context is stored in the layout as page_context.
//
// Any OpenAI-compatible endpoint works; the default configuration points at
// OpenRouter. The API key is read from the environment variable named in the
// configuration (OPENAI_API_KEY by default).
package codegen
