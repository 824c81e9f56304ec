package templates

const htmlBasic = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Basic HTML page</title>
</head>
<body>
    <header>
        <h1>Welcome to my site</h1>
        <nav>
            <a href="#home">Home</a>
            <a href="#about">About</a>
            <a href="#contact">Contact</a>
        </nav>
    </header>

    <main>
        <section id="home">
            <h2>Home</h2>
            <p>This is the skeleton of a basic HTML page.</p>
        </section>
    </main>

    <footer>
        <p>&copy; 2024 My site</p>
    </footer>
</body>
</html>`

const cssAnimation = `body {
    margin: 0;
    padding: 40px;
    background: linear-gradient(45deg, #667eea, #764ba2);
    font-family: Arial, sans-serif;
    color: white;
    min-height: 100vh;
}

.demo-content {
    text-align: center;
}

h1 {
    font-size: 2rem;
    animation: pulse 2s infinite;
}

.box {
    width: 100px;
    height: 100px;
    line-height: 100px;
    background: linear-gradient(45deg, #ff6b6b, #feca57);
    border-radius: 20px;
    margin: 20px auto;
    animation: float 3s ease-in-out infinite;
    box-shadow: 0 10px 30px rgba(0, 0, 0, 0.3);
}

button {
    padding: 12px 24px;
    border: 3px solid;
    border-image: linear-gradient(45deg, red, orange, yellow, green, blue, indigo, violet) 1;
    background: rgba(255, 255, 255, 0.1);
    color: white;
}

@keyframes float {
    0%, 100% { transform: translateY(0px) rotate(0deg); }
    50% { transform: translateY(-20px) rotate(180deg); }
}

@keyframes pulse {
    0%, 100% { opacity: 1; transform: scale(1); }
    50% { opacity: 0.7; transform: scale(1.1); }
}`

const jsInteractive = `let count = 0;

function increment() {
    count++;
    console.log('count:', count);
}

function decrement() {
    count--;
    console.log('count:', count);
}

function reset() {
    count = 0;
    console.log('count reset');
}

const colors = ['#ff7675', '#74b9ff', '#00b894', '#fdcb6e', '#e17055', '#a29bfe'];

for (let i = 0; i < 3; i++) {
    increment();
}
decrement();
console.log('color of the day:', colors[count % colors.length]);
reset();`

const reactComponent = `function TodoApp() {
    const [todos, setTodos] = React.useState([
        { id: 1, text: 'Learn React', completed: false },
        { id: 2, text: 'Build a project', completed: false }
    ]);
    const [inputValue, setInputValue] = React.useState('');

    const addTodo = () => {
        if (inputValue.trim()) {
            setTodos([...todos, { id: Date.now(), text: inputValue, completed: false }]);
            setInputValue('');
        }
    };

    const toggleTodo = (id) => {
        setTodos(todos.map(todo =>
            todo.id === id ? { ...todo, completed: !todo.completed } : todo
        ));
    };

    const deleteTodo = (id) => {
        setTodos(todos.filter(todo => todo.id !== id));
    };

    return (
        <div className="app">
            <h1>React Todo</h1>
            <div style={{ display: 'flex', marginBottom: '20px' }}>
                <input
                    type="text"
                    value={inputValue}
                    onChange={(e) => setInputValue(e.target.value)}
                    placeholder="Add a task..."
                    onKeyPress={(e) => e.key === 'Enter' && addTodo()}
                />
                <button onClick={addTodo}>Add</button>
            </div>
            {todos.map(todo => (
                <div key={todo.id} style={{ textDecoration: todo.completed ? 'line-through' : 'none' }}>
                    <input type="checkbox" checked={todo.completed} onChange={() => toggleTodo(todo.id)} />
                    <span>{todo.text}</span>
                    <button onClick={() => deleteTodo(todo.id)}>Delete</button>
                </div>
            ))}
            <p>Total: {todos.length}, done: {todos.filter(t => t.completed).length}</p>
        </div>
    );
}

ReactDOM.render(<TodoApp />, document.getElementById('root'));`

const galaxyTheme = `<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            margin: 0;
            background: radial-gradient(ellipse at center, #1a1a2e 0%, #16213e 25%, #0f0f23 50%, #000000 100%);
            color: white;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            min-height: 100vh;
            overflow-x: hidden;
        }

        .content {
            position: relative;
            z-index: 10;
            text-align: center;
            padding: 80px 20px;
        }

        .title {
            font-size: 4rem;
            animation: glow 3s ease-in-out infinite alternate;
        }

        @keyframes glow {
            0% { text-shadow: 0 0 20px rgba(255, 255, 255, 0.5); }
            100% { text-shadow: 0 0 30px rgba(135, 206, 235, 0.8), 0 0 40px rgba(135, 206, 235, 0.6); }
        }

        .star {
            position: absolute;
            background: white;
            border-radius: 50%;
            animation: twinkle 3s infinite;
        }

        .star.small { width: 1px; height: 1px; animation-duration: 2s; }
        .star.medium { width: 2px; height: 2px; box-shadow: 0 0 6px rgba(255, 255, 255, 0.8); }
        .star.large { width: 3px; height: 3px; animation-duration: 4s; box-shadow: 0 0 10px rgba(255, 255, 255, 0.9); }

        @keyframes twinkle {
            0%, 100% { opacity: 0.3; transform: scale(1); }
            50% { opacity: 1; transform: scale(1.2); }
        }

        .shooting-star {
            position: absolute;
            width: 2px;
            height: 2px;
            background: linear-gradient(45deg, #ffffff, #87ceeb);
            border-radius: 50%;
            box-shadow: 0 0 10px #87ceeb;
            animation: shoot 3s linear infinite;
        }

        @keyframes shoot {
            0% { transform: translateX(-100px) translateY(100px); opacity: 0; }
            10%, 90% { opacity: 1; }
            100% { transform: translateX(300px) translateY(-300px); opacity: 0; }
        }
    </style>
</head>
<body>
    <div class="content">
        <h1 class="title">Explore the galaxy</h1>
        <p>Discover the mysteries of programming among the stars</p>
        <button onclick="createShootingStar()">Summon a meteor</button>
        <button onclick="addStars()">Add stars</button>
    </div>

    <script>
        function createStar() {
            const star = document.createElement('div');
            const size = Math.random();
            star.className = 'star ' + (size < 0.7 ? 'small' : size < 0.9 ? 'medium' : 'large');
            star.style.left = Math.random() * 100 + '%';
            star.style.top = Math.random() * 100 + '%';
            star.style.animationDelay = Math.random() * 3 + 's';
            document.body.appendChild(star);
        }

        function createShootingStar() {
            const s = document.createElement('div');
            s.className = 'shooting-star';
            s.style.left = Math.random() * 100 + '%';
            s.style.top = Math.random() * 100 + '%';
            document.body.appendChild(s);
            setTimeout(() => s.remove(), 3000);
        }

        function addStars() {
            for (let i = 0; i < 20; i++) {
                setTimeout(createStar, i * 100);
            }
        }

        for (let i = 0; i < 100; i++) {
            createStar();
        }

        setInterval(() => {
            if (Math.random() < 0.3) {
                createShootingStar();
            }
        }, 2000);
    </script>
</body>
</html>`
