package snippet

import "strings"

// DownloadBaseName is the stem of every downloaded file.
const DownloadBaseName = "galaxy-code"

// Snippet is the editor's source text and its declared target language.
type Snippet struct {
	Source   string   `json:"source" yaml:"source"`
	Language Language `json:"language" yaml:"language"`
}

// Blank reports whether the source is empty after trimming whitespace.
func (s Snippet) Blank() bool {
	return strings.TrimSpace(s.Source) == ""
}

// Filename is the name the snippet is offered under for download.
func (s Snippet) Filename() string {
	return DownloadBaseName + "." + s.Language.Extension()
}

// Default is the snippet shown when nothing has been saved yet.
func Default() Snippet {
	return Snippet{Source: defaultMarkup, Language: LanguageMarkup}
}

const defaultMarkup = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>My Galaxy Page</title>
    <style>
        body {
            margin: 0;
            padding: 20px;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 25%, #0f0f23 50%, #000000 100%);
            color: white;
            min-height: 100vh;
        }

        .container {
            max-width: 800px;
            margin: 0 auto;
            text-align: center;
            padding: 40px 20px;
        }

        h1 {
            font-size: 3rem;
            margin-bottom: 20px;
            background: linear-gradient(45deg, #ffffff, #87ceeb);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
        }

        .star {
            position: absolute;
            background: white;
            border-radius: 50%;
            animation: twinkle 2s infinite;
        }

        @keyframes twinkle {
            0%, 100% { opacity: 0.3; }
            50% { opacity: 1; }
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Welcome to my galaxy</h1>
        <p>Start your coding journey here!</p>
        <button onclick="createStar()">Create a star</button>
    </div>

    <script>
        function createStar() {
            const star = document.createElement('div');
            star.className = 'star';
            star.style.width = Math.random() * 3 + 1 + 'px';
            star.style.height = star.style.width;
            star.style.left = Math.random() * 100 + '%';
            star.style.top = Math.random() * 100 + '%';
            star.style.animationDelay = Math.random() * 2 + 's';

            document.body.appendChild(star);

            setTimeout(() => {
                star.remove();
            }, 5000);
        }

        for (let i = 0; i < 20; i++) {
            setTimeout(createStar, i * 200);
        }
    </script>
</body>
</html>`
